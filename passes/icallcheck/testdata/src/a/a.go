package a

import "fmt"

type Stringer interface{ String() string }

func describe(s Stringer, format func(string) string) string {
	return format(s.String())
}

func main() {
	fmt.Println(describe(nil, func(s string) string { return s }))
}
