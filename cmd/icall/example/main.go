package main

import "fmt"

type Shape interface{ Area() float64 }

type square struct{ side float64 }

func (s square) Area() float64 { return s.side * s.side }

func total(shapes []Shape, scale func(float64) float64) float64 {
	var sum float64
	for _, s := range shapes {
		sum += scale(s.Area())
	}
	return sum
}

func main() {
	fmt.Println(total([]Shape{square{2}}, func(f float64) float64 { return f * 2 }))
}
