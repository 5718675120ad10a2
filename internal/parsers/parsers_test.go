package parsers

import (
	"regexp"
	"strings"
	"testing"

	"github.com/tferro/esmcat/internal/catalog"
)

func TestLookup_KnownAndUnknown(t *testing.T) {
	for _, name := range []string{"default", "cmip6", "cesm2-smyle", "amwg-obs"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
	if _, err := Lookup("nope"); err == nil {
		t.Error("unknown parser name must fail")
	}
}

func TestWrap_PanicBecomesFailureRecord(t *testing.T) {
	fn := Wrap(func(string) catalog.Record {
		panic("parser bug")
	})
	rec := fn("/data/a.nc")
	if !rec.IsInvalid() {
		t.Fatal("panic should yield a failure record")
	}
	if rec[catalog.InvalidAssetKey] != "/data/a.nc" {
		t.Errorf("invalid marker = %v", rec[catalog.InvalidAssetKey])
	}
	detail, _ := rec[catalog.TracebackKey].(string)
	if !strings.Contains(detail, "parser bug") {
		t.Errorf("traceback does not carry the panic value: %q", detail)
	}
}

func TestDefault(t *testing.T) {
	rec := Default("/data/tas_Amon_model.nc")
	if rec["path"] != "/data/tas_Amon_model.nc" {
		t.Errorf("path = %v", rec["path"])
	}
	if rec["variable"] != "tas" {
		t.Errorf("variable = %v, want tas", rec["variable"])
	}
}

func TestCMIP6_FromDRSPath(t *testing.T) {
	p := "/archive/CMIP6/CMIP/BCC/BCC-ESM1/piControl/r1i1p1f1/Amon/tas/gn/v20190308/" +
		"tas_Amon_BCC-ESM1_piControl_r1i1p1f1_gn_185001-230012.nc"
	rec := CMIP6(p)
	if rec.IsInvalid() {
		t.Fatalf("unexpected failure record: %v", rec)
	}
	want := map[string]string{
		"variable_id":    "tas",
		"table_id":       "Amon",
		"source_id":      "BCC-ESM1",
		"experiment_id":  "piControl",
		"member_id":      "r1i1p1f1",
		"grid_label":     "gn",
		"time_range":     "185001-230012",
		"version":        "v20190308",
		"institution_id": "BCC",
		"activity_id":    "CMIP",
		"mip_era":        "CMIP6",
		"variable":       "tas",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("%s = %v, want %q", k, rec[k], v)
		}
	}
}

func TestCMIP6_TimeInvariantFilename(t *testing.T) {
	rec := CMIP6("/d/areacella_fx_BCC-ESM1_piControl_r1i1p1f1_gn.nc")
	if rec.IsInvalid() {
		t.Fatalf("unexpected failure record: %v", rec)
	}
	if _, ok := rec["time_range"]; ok {
		t.Error("time-invariant file must have no time_range")
	}
	if rec["version"] != "v0" {
		t.Errorf("version = %v, want fallback v0", rec["version"])
	}
}

func TestCMIP6_MalformedFilename(t *testing.T) {
	rec := CMIP6("/d/notes.nc")
	if !rec.IsInvalid() {
		t.Fatal("malformed filename must yield a failure record")
	}
}

func TestCESMSmyle(t *testing.T) {
	p := "/glade/campaign/b.e21.BSMYLE.f09_g17.1970-01.001/ocn/proc/tseries/month_1/" +
		"b.e21.BSMYLE.f09_g17.1970-01.001.pop.h.SST.197001-197112.nc"
	rec := CESMSmyle(p)
	if rec.IsInvalid() {
		t.Fatalf("unexpected failure record: %v", rec)
	}
	if rec["case"] != "b.e21.BSMYLE.f09_g17.1970-01.001" {
		t.Errorf("case = %v", rec["case"])
	}
	if rec["component"] != "ocn" || rec["spatial_domain"] != "global_ocean" {
		t.Errorf("component/domain = %v/%v", rec["component"], rec["spatial_domain"])
	}
	if rec["variable"] != "SST" {
		t.Errorf("variable = %v, want SST", rec["variable"])
	}
	if rec["stream"] != "pop.h" {
		t.Errorf("stream = %v, want pop.h", rec["stream"])
	}
	if rec["frequency"] != "month_1" {
		t.Errorf("frequency = %v", rec["frequency"])
	}
	if rec["init_year"] != 1970 || rec["init_month"] != 1 || rec["member_id"] != 1 {
		t.Errorf("init/member = %v/%v/%v", rec["init_year"], rec["init_month"], rec["member_id"])
	}
	if rec["start_time"] != "197001" || rec["end_time"] != "197112" {
		t.Errorf("time range = %v-%v", rec["start_time"], rec["end_time"])
	}
}

func TestCESMSmyle_ShallowPath(t *testing.T) {
	if rec := CESMSmyle("/a/b.nc"); !rec.IsInvalid() {
		t.Error("shallow path must yield a failure record")
	}
}

func TestAMWGObs_Monthly(t *testing.T) {
	rec := AMWGObs("/obs/ERAI_T_01_climo.nc")
	if rec.IsInvalid() {
		t.Fatalf("unexpected failure record: %v", rec)
	}
	if rec["source"] != "ERAI" || rec["variable"] != "T" {
		t.Errorf("source/variable = %v/%v", rec["source"], rec["variable"])
	}
	if rec["time_period"] != "monthly" || rec["temporal"] != "JAN" {
		t.Errorf("time_period/temporal = %v/%v", rec["time_period"], rec["temporal"])
	}
}

func TestAMWGObs_Seasonal(t *testing.T) {
	rec := AMWGObs("/obs/ERAI_T_DJF_climo.nc")
	if rec.IsInvalid() {
		t.Fatalf("unexpected failure record: %v", rec)
	}
	if rec["time_period"] != "seasonal" || rec["temporal"] != "DJF" {
		t.Errorf("time_period/temporal = %v/%v", rec["time_period"], rec["temporal"])
	}
}

func TestLongestMatch(t *testing.T) {
	re := regexp.MustCompile(`v\d{8}|v\d{1}`)
	if got := LongestMatch(re, "/d/v1/v20190308/x.nc", ""); got != "v20190308" {
		t.Errorf("LongestMatch = %q, want longest alternative", got)
	}
	if got := LongestMatch(re, "/d/x.nc", ""); got != "" {
		t.Errorf("LongestMatch on no match = %q, want empty", got)
	}
}
