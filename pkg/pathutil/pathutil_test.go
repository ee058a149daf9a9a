package pathutil

import "testing"

func TestToRelative(t *testing.T) {
	cases := []struct {
		abs  string
		root string
		want string
	}{
		{"/home/user/project/src/top.vhd", "/home/user/project", "src/top.vhd"},
		{"/other/location/file.vhd", "/home/user/project", "/other/location/file.vhd"},
		{"src/top.vhd", "/home/user/project", "src/top.vhd"},
		{"", "/home/user/project", ""},
		{"/home/user/project", "/home/user/project", "."},
	}
	for _, tc := range cases {
		got := ToRelative(tc.abs, tc.root)
		if got != tc.want {
			t.Errorf("ToRelative(%q, %q) = %q, want %q", tc.abs, tc.root, got, tc.want)
		}
	}
}

func TestToAbsolute(t *testing.T) {
	if got := ToAbsolute("src/top.vhd", "/proj"); got != "/proj/src/top.vhd" {
		t.Errorf("ToAbsolute relative = %q", got)
	}
	if got := ToAbsolute("/already/abs.vhd", "/proj"); got != "/already/abs.vhd" {
		t.Errorf("ToAbsolute absolute = %q", got)
	}
}
