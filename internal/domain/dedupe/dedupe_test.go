package dedupe_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/okian/savant/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording rows", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the row is new", func() {
				seen := d.SeenAndRecord(ctx, "row-1")

				Convey("Then it should return false and record the row", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the row was already seen", func() {
				d.SeenAndRecord(ctx, "row-1")
				seen := d.SeenAndRecord(ctx, "row-1")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})

		Convey("When unrecording rows", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))
			d.SeenAndRecord(ctx, "row-1")
			d.SeenAndRecord(ctx, "row-2")

			d.Unrecord(ctx, "row-1")
			d.Unrecord(ctx, "missing")

			Convey("Then only the recorded key should be forgotten", func() {
				So(d.Size(), ShouldEqual, 1)
				So(d.SeenAndRecord(ctx, "row-1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "row-2"), ShouldBeTrue)
			})
		})

		Convey("When using bounded mode at capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, k := range []string{"row-1", "row-2", "row-3"} {
				So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
			}

			seen := d.SeenAndRecord(ctx, "row-4")

			Convey("Then the oldest key should be evicted", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "row-4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "row-3"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "row-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When unrecording in bounded mode frees capacity", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
			d.SeenAndRecord(ctx, "row-1")
			d.SeenAndRecord(ctx, "row-2")
			d.Unrecord(ctx, "row-1")
			d.SeenAndRecord(ctx, "row-3")

			Convey("Then no live key should be evicted", func() {
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "row-2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "row-3"), ShouldBeTrue)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const numRows = 100_000
			for i := 0; i < numRows; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("row-%d", i))
			}

			Convey("Then every key should be kept", func() {
				So(d.Size(), ShouldEqual, int64(numRows))
				So(d.SeenAndRecord(ctx, "row-0"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "row-99999"), ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const numGoroutines = 10
		const rowsPerGoroutine = 100

		Convey("When multiple goroutines record overlapping rows", func() {
			var wg sync.WaitGroup
			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < rowsPerGoroutine; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("row-%d", j))
					}
				}()
			}
			wg.Wait()

			Convey("Then each distinct row should be recorded once", func() {
				So(d.Size(), ShouldEqual, int64(rowsPerGoroutine))
			})
		})
	})
}

func TestRowKey(t *testing.T) {
	Convey("Given row keys", t, func() {
		Convey("When rows are identical", func() {
			So(dedupe.RowKey([]string{"a", "b"}), ShouldEqual, dedupe.RowKey([]string{"a", "b"}))
		})

		Convey("When field boundaries differ", func() {
			So(dedupe.RowKey([]string{"ab", "c"}), ShouldNotEqual, dedupe.RowKey([]string{"a", "bc"}))
			So(dedupe.RowKey([]string{"1:a", ""}), ShouldNotEqual, dedupe.RowKey([]string{"", "1:a"}))
		})

		Convey("When a field is empty", func() {
			So(dedupe.RowKey([]string{"", "x"}), ShouldNotEqual, dedupe.RowKey([]string{"x", ""}))
			So(dedupe.RowKey(nil), ShouldEqual, "")
		})

		Convey("When fields are long", func() {
			long := strings.Repeat("a", 10_000)
			So(dedupe.RowKey([]string{long}), ShouldStartWith, "10000:")
		})
	})
}
