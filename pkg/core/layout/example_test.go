package layout_test

import (
	"fmt"

	"github.com/matzehuels/choirstage/pkg/chart"
	"github.com/matzehuels/choirstage/pkg/core/layout"
)

func ExampleNormalizeSeatingPositions() {
	seating := []chart.SeatedMember{
		{RosterID: "alice", Position: 2.5, RowNumber: 0},
		{RosterID: "bob", Position: -1, RowNumber: 0},
		{RosterID: "carol", Position: 0.5, RowNumber: 0},
	}
	for _, s := range layout.NormalizeSeatingPositions(seating) {
		fmt.Println(s.RosterID, s.Position)
	}
	// Output:
	// bob 0
	// carol 1
	// alice 2
}

func ExampleRegrid() {
	size := layout.SeatingSize(chart.LayoutGrid, 3, 4)
	rows, cols := layout.Regrid(chart.LayoutGrid, size.Width, size.Height, 4)
	fmt.Printf("%vx%v -> %dx%d\n", size.Width, size.Height, rows, cols)
	// Output:
	// 212x212 -> 3x4
}
