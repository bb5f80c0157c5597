package ddl

import (
	"testing"

	gddl "carcrash/internal/ddl"
	"carcrash/internal/table"
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"simple", "`simple`"},
		{"tick`name", "`tick``name`"},
		{"weird``x", "`weird````x`"},
	}
	for _, tc := range cases {
		if got := QuoteIdent(tc.in); got != tc.want {
			t.Errorf("QuoteIdent(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildCreateAndDrop(t *testing.T) {
	t.Parallel()

	s := table.MustSchema(
		table.Column{Name: "VEH_MAKE_ID", Type: table.TypeText},
		table.Column{Name: "count", Type: table.TypeInteger},
		table.Column{Name: "ratio", Type: table.TypeFloat},
		table.Column{Name: "ok", Type: table.TypeBoolean},
	)
	def, err := gddl.FromSchema("crash.analysis_4", s, MapType)
	if err != nil {
		t.Fatal(err)
	}
	got, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatal(err)
	}
	want := "CREATE TABLE IF NOT EXISTS `crash`.`analysis_4` (\n" +
		"  `VEH_MAKE_ID` LONGTEXT,\n" +
		"  `count` BIGINT,\n" +
		"  `ratio` DOUBLE,\n" +
		"  `ok` BOOLEAN\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}

	drop, err := BuildDropTableSQL("analysis_4")
	if err != nil || drop != "DROP TABLE IF EXISTS `analysis_4`;" {
		t.Fatalf("drop = %q, %v", drop, err)
	}
	if _, err := BuildCreateTableSQL(gddl.TableDef{}); err == nil {
		t.Fatal("want error for empty definition")
	}
}
