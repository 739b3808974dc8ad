package malloc

import "fmt"

func Example() {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	if err != nil {
		panic(err)
	}

	b1 := a.Allocate(24)
	b2 := a.Allocate(512)

	fmt.Printf("b1: len=%d\n", len(b1))
	fmt.Printf("b2: len=%d\n", len(b2))

	a.Free(b1)
	a.Free(b2)

	ok, err := a.Verify()
	fmt.Printf("verify: ok=%t err=%v\n", ok, err)

	// Output:
	// b1: len=24
	// b2: len=512
	// verify: ok=true err=<nil>
}
