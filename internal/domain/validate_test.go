package domain

import "testing"

func TestValidateFIO(t *testing.T) {
	valid := []string{
		"Иван Иванов",
		"Анна",
		"Пётр Ёлкин",
		"  Мария Петрова  ", // trimmed
	}
	for _, in := range valid {
		if _, err := ValidateFIO(in); err != nil {
			t.Errorf("ValidateFIO(%q) = %v, want nil", in, err)
		}
	}

	invalid := []string{
		"",
		"   ",
		"Ivan Ivanov",
		"Иван123",
		"Иван-Иванов",
		"Иван Ivanov",
		"Иван.",
		"123",
	}
	for _, in := range invalid {
		if _, err := ValidateFIO(in); err == nil {
			t.Errorf("ValidateFIO(%q) = nil, want error", in)
		}
	}
}

func TestParseAge(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"34", 34, true},
		{"100", 100, true},
		{"0", 0, false},
		{"101", 0, false},
		{"-5", 0, false},
		{"12.5", 0, false},
		{"abc", 0, false},
		{"34 года", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseAge(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseAge(%q) = (%d, %v), want (%d, nil)", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseAge(%q) = nil error, want error", c.in)
		}
	}
}

func TestParseWeight(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{"2", 2, true},
		{"0.1", 0.1, true},
		{"0", 0, false},
		{"-1.5", 0, false},
		{"полтора", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, err := ParseWeight(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("ParseWeight(%q) = (%v, %v), want (%v, nil)", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("ParseWeight(%q) = nil error, want error", c.in)
		}
	}
}
