// Package schema provides the in-memory model of an AST schema: the list of
// node definitions plus the token spelling table.
//
// Schemas are read from the syn-codegen style description used by the
// generator, in either JSON or YAML form:
//
//	version: "2.0.0"
//	tokens:
//	  Comma: ","
//	types:
//	  - ident: ExprCall
//	    features: {any: [full]}
//	    fields:
//	      attrs: {vec: {syn: Attribute}}
//	      func: {box: {syn: Expr}}
//	      paren_token: {group: Paren}
//	      args: {punctuated: {element: {syn: Expr}, punct: Comma}}
//	  - ident: Expr
//	    exhaustive: false
//	    variants:
//	      Call: [{syn: ExprCall}]
//
// Field and variant order is significant and preserved in both encodings.
// A node without "fields" or "variants" is opaque.
package schema
