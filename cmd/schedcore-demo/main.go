// Command schedcore-demo builds and repairs a small schedule end to end,
// printing the final plan and how many snapshots the driver recorded.
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kallhauge/schedcore/pkg/schedule/model"
	"github.com/kallhauge/schedcore/pkg/schedule/scheduler"
)

func main() {
	fmt.Println("=== schedcore demo: cross-lane local optimum ===")
	fmt.Println()

	lane0 := model.NewLane(0)
	lane1 := model.NewLane(1)

	a, _ := model.NewItem(1, model.Durations{lane0: 400}, nil)
	b, _ := model.NewItem(2, model.Durations{lane1: 200}, nil)
	c, _ := model.NewItem(3, model.Durations{lane1: 200}, []int64{b.ID()})
	d, _ := model.NewItem(4, model.Durations{lane1: 200}, []int64{b.ID(), c.ID()})

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("build logger: %v\n", err)
		return
	}
	defer logger.Sync()

	s := scheduler.New(nil, scheduler.WithLogger(logger))
	pl, err := s.Schedule(context.Background(), []model.Schedulable{a, b, c, d}, nil)
	if err != nil {
		fmt.Printf("❌ schedule failed: %v\n", err)
		return
	}

	fmt.Println()
	fmt.Println("✓ final plan:")
	for _, id := range []int64{a.ID(), b.ID(), c.ID(), d.ID()} {
		si, _ := pl.Get(id)
		fmt.Printf("  item %d: start=%d end=%d\n", id, si.Start(), si.MaxEnd())
	}
	fmt.Printf("makespan = %d, backsteps = %d, snapshots recorded = %d\n",
		pl.Makespan(), s.Backsteps(), len(s.Snapshots()))
}
