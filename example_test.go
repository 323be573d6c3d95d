package rsprod_test

import (
	"fmt"

	"github.com/qri-io/rsprod-go"
)

func ExampleField_Pack() {
	dims, _ := rsprod.NewDims([]string{"x"}, []int{4}, nil)
	data, _ := rsprod.ValueOf(rsprod.Float32, 280.5, 281.25, -999, 300)
	f, _ := rsprod.NewStandardField("tb", dims, data, rsprod.StandardAttrs{
		Units:     "K",
		FillValue: rsprod.NewScalar(rsprod.Float32, -999),
	})

	if err := f.Pack(rsprod.Int16, rsprod.WithScale(0.01), rsprod.WithOffset(250)); err != nil {
		panic(err)
	}
	fmt.Println(f)
	fmt.Println(f.Data())

	if err := f.Unpack(rsprod.KindNone); err != nil {
		panic(err)
	}
	fmt.Println(f.Data())
	// Output:
	// short tb(x = 4) (4 attributes)
	// [3050 3125 -999 5000]
	// [280.5 281.25 -999 300]
}

func ExampleJoin() {
	grid, _ := rsprod.NewDims([]string{"y", "x"}, []int{3, 4}, nil)
	series, _ := rsprod.NewDims([]string{"time", "x"}, []int{2, 4}, []bool{true, false})

	all, _ := rsprod.Join(grid, series)
	fmt.Println(all)
	i, _ := all.Flatten(1, 2, 3)
	fmt.Println(i)
	// Output:
	// (time = UNLIMITED (2), y = 3, x = 4)
	// 23
}
