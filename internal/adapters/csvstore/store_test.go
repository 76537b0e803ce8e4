package csvstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/savant/internal/adapters/csvstore"
	"github.com/okian/savant/internal/domain/period"
	"github.com/okian/savant/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStoreLayout(t *testing.T) {
	Convey("Given a store rooted at files", t, func() {
		s := csvstore.New("files")
		periods, err := period.Season(2024)
		So(err, ShouldBeNil)

		Convey("Then paths should follow the season layout", func() {
			So(s.YearDir(2024), ShouldEqual, filepath.Join("files", "2024"))
			So(s.PeriodPath(2024, periods[1]), ShouldEqual, filepath.Join("files", "2024", "april_2024.csv"))
			So(s.CombinedPath(2024), ShouldEqual, filepath.Join("files", "2024", "savantdata-2024.csv"))
		})
	})
}

func TestStoreReadWrite(t *testing.T) {
	Convey("Given a store in a temporary directory", t, func() {
		base := t.TempDir()
		s := csvstore.New(base)

		Convey("When the season directory is ensured twice", func() {
			dir, err := s.EnsureYearDir(2024)
			So(err, ShouldBeNil)
			_, err = s.EnsureYearDir(2024)

			Convey("Then the second call should not fail", func() {
				So(err, ShouldBeNil)
				info, statErr := os.Stat(dir)
				So(statErr, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			})
		})

		Convey("When a table is written and read back", func() {
			dir, err := s.EnsureYearDir(2024)
			So(err, ShouldBeNil)
			path := filepath.Join(dir, "april_2024.csv")
			in := &table.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}

			So(s.Write(path, in), ShouldBeNil)
			out, err := s.Read(path)

			Convey("Then the content should survive", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, in)
			})

			Convey("And writing again should overwrite, not append", func() {
				smaller := &table.Table{Header: []string{"a"}, Rows: [][]string{{"9"}}}
				So(s.Write(path, smaller), ShouldBeNil)
				raw, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(raw), ShouldEqual, "a\n9\n")
			})
		})

		Convey("When a file is corrupt", func() {
			dir, err := s.EnsureYearDir(2024)
			So(err, ShouldBeNil)
			path := filepath.Join(dir, "may_2024.csv")
			So(os.WriteFile(path, []byte("a,b\n1,2,3\n"), 0o644), ShouldBeNil)

			err = s.Validate(path)

			Convey("Then validation should report ErrParse with the path", func() {
				So(errors.Is(err, csvstore.ErrParse), ShouldBeTrue)
				So(errors.Is(err, table.ErrMalformed), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, path)
			})
		})

		Convey("When a file does not exist", func() {
			_, err := s.Read(filepath.Join(base, "nope.csv"))

			Convey("Then the error should wrap os.ErrNotExist", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})
}

func TestListPeriodFiles(t *testing.T) {
	Convey("Given a season directory with mixed files", t, func() {
		s := csvstore.New(t.TempDir())
		dir, err := s.EnsureYearDir(2024)
		So(err, ShouldBeNil)
		for _, name := range []string{"may_2024.csv", "april_2024.csv", "savantdata-2024.csv", "notes.txt"} {
			So(os.WriteFile(filepath.Join(dir, name), []byte("a\n1\n"), 0o644), ShouldBeNil)
		}
		So(os.Mkdir(filepath.Join(dir, "old.csv"), 0o750), ShouldBeNil)

		Convey("When listing period files", func() {
			files, err := s.ListPeriodFiles(2024)

			Convey("Then the combined file, non-CSV files and directories should be skipped", func() {
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{
					filepath.Join(dir, "april_2024.csv"),
					filepath.Join(dir, "may_2024.csv"),
				})
			})
		})

		Convey("When a custom reserved prefix is used", func() {
			custom := csvstore.New(filepath.Dir(dir), csvstore.WithReservedPrefix("may"))
			files, err := custom.ListPeriodFiles(2024)

			Convey("Then files with that prefix should be skipped instead", func() {
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{
					filepath.Join(dir, "april_2024.csv"),
					filepath.Join(dir, "savantdata-2024.csv"),
				})
			})
		})
	})
}
