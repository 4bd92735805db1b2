package normalize

import "testing"

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in         string
		stripZeros bool
		want       string
	}{
		{"85.010-0", false, "850100"},
		{"85.010-0", true, "850100"},
		{"00401/23_a b\t", false, "0040123ab"},
		{"00401/23", true, "40123"},
		{"  ", false, ""},
		{"", true, ""},
		{"0", true, ""},
	}
	for _, c := range cases {
		if got := NormalizeCode(c.in, c.stripZeros); got != c.want {
			t.Errorf("NormalizeCode(%q, %v) = %q, want %q", c.in, c.stripZeros, got, c.want)
		}
	}
}

func TestNormalizeCodeIdempotent(t *testing.T) {
	codes := []string{"85.010-0", "00.123-4", "ABC-1/2", "", "0005"}
	for _, code := range codes {
		for _, strip := range []bool{false, true} {
			once := NormalizeCode(code, strip)
			twice := NormalizeCode(once, strip)
			if once != twice {
				t.Errorf("NormalizeCode(%q, %v) not idempotent: %q != %q", code, strip, once, twice)
			}
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("2,012"); got != "2012" {
		t.Errorf("DigitsOnly(2,012) = %q", got)
	}
	if got := DigitsOnly(" 1.702 "); got != "1702" {
		t.Errorf("DigitsOnly(1.702) = %q", got)
	}
	if got := DigitsOnly("n/a"); got != "" {
		t.Errorf("DigitsOnly(n/a) = %q", got)
	}
}

func TestJoinKey(t *testing.T) {
	if got := JoinKey(" A100 ", "850100"); got != "A100__850100" {
		t.Errorf("JoinKey = %q", got)
	}
	if got := JoinKey("", ""); got != "__" {
		t.Errorf("JoinKey empty = %q", got)
	}
}

func TestParseMoneyCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"150.00", 15000},
		{"150,00", 15000},
		{"1234,56", 123456},
		{"0.1", 10},
		{"0.105", 11},  // half-up on the third fraction digit
		{"0.104", 10},
		{"-12,30", -1230},
		{"+5", 500},
		{".50", 50},
		{"7", 700},
		{"", 0},
		{"abc", 0},
		{"12,34,56", 0},
	}
	for _, c := range cases {
		if got := ParseMoneyCents(c.in); got != c.want {
			t.Errorf("ParseMoneyCents(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if got := ParseQuantity("2,5"); got != 2.5 {
		t.Errorf("ParseQuantity(2,5) = %v", got)
	}
	if got := ParseQuantity("bogus"); got != 0 {
		t.Errorf("ParseQuantity(bogus) = %v", got)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	if got := CentsToValue(15000); got != 150.0 {
		t.Errorf("CentsToValue = %v", got)
	}
	if got := ValueToCents(150.005); got != 15001 {
		t.Errorf("ValueToCents = %d", got)
	}
}

func TestFormatBRL(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{150, "R$ 150,00"},
		{1234567.89, "R$ 1.234.567,89"},
		{-12.3, "-R$ 12,30"},
	}
	for _, c := range cases {
		if got := FormatBRL(c.in); got != c.want {
			t.Errorf("FormatBRL(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-03-15", "15/03/2024", "2024/03/15", "15-03-2024"} {
		d := ParseDate(s)
		if d == nil {
			t.Fatalf("ParseDate(%q) = nil", s)
		}
		if d.Year() != 2024 || int(d.Month()) != 3 || d.Day() != 15 {
			t.Errorf("ParseDate(%q) = %v", s, d)
		}
	}
	if ParseDate("not a date") != nil {
		t.Error("expected nil for garbage date")
	}
	if ParseDate("") != nil {
		t.Error("expected nil for empty date")
	}
}

func TestMonthKey(t *testing.T) {
	d := ParseDate("15/03/2024")
	if got := MonthKey(d); got != "03/2024" {
		t.Errorf("MonthKey = %q", got)
	}
	if got := MonthKey(nil); got != "" {
		t.Errorf("MonthKey(nil) = %q", got)
	}
}

func TestRunFingerprintStable(t *testing.T) {
	a := RunFingerprint([]string{"h1", "h2"}, 0.02, false, false)
	b := RunFingerprint([]string{"h1", "h2"}, 0.02, false, false)
	if a != b {
		t.Error("fingerprint not deterministic")
	}
	c := RunFingerprint([]string{"h1", "h2"}, 0.03, false, false)
	if a == c {
		t.Error("fingerprint ignores tolerance")
	}
}
