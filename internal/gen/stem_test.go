package gen_test

import (
	"fmt"

	"mirror-generator/internal/gen"
)

func ExampleStem() {
	st := gen.NewStem("v")
	fmt.Println(st.Next(), st.Next(), st.Next())

	st.Reset()
	fmt.Println(st.Next())

	// Output:
	// v1 v2 v3
	// v1
}
