package parse_test

import (
	"fmt"

	"github.com/matzehuels/stepflow/pkg/parse"
)

func ExampleParseString() {
	res, err := parse.ParseString(`
# build pipeline
fetch -> build
build -> test
package: build test
`, parse.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range res.Graph.Edges() {
		fmt.Println(e.From, "->", e.To)
	}
	// Output:
	// build -> package
	// build -> test
	// fetch -> build
	// test -> package
}
