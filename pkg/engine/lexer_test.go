package engine

import "testing"

func TestTranslate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(circle 2 :placement p)`,
			expect: `(circle 2 "__kw_placement" p)`,
		},
		{
			name:   "multiple keywords",
			input:  `(tolerance :precision 1e-5 :angle 0.5)`,
			expect: `(tolerance "__kw_precision" 1e-5 "__kw_angle" 0.5)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "workaround name preserved",
			input:  `(workaround "#SnapTrimToCurve")`,
			expect: `(workaround "#SnapTrimToCurve")`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(swept-solid :profile p)`,
			expect: `(swept_solid "__kw_profile" p)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative exponent preserved",
			input:  `(vec3 1e-3 -2 0)`,
			expect: `(vec3 1e-3 -2 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:same-sense`,
			expect: `"__kw_same-sense"`,
		},
		{
			name:   "escaped quote keeps string open",
			input:  `"say \":x\"" :y`,
			expect: `"say \":x\"" "__kw_y"`,
		},
		{
			name:   "backtick string preserved",
			input:  "(def s `a-b :c`)",
			expect: "(def s `a-b :c`)",
		},
		{
			name:   "unterminated string copied",
			input:  `(def s "open :k`,
			expect: `(def s "open :k`,
		},
		{
			name:   "lines kept around comments",
			input:  "; header\n(point-list :points\n  ;; inner\n  pts)",
			expect: "// header\n(point_list \"__kw_points\"\n  // inner\n  pts)",
		},
		{
			name:   "lone colon preserved",
			input:  `(f : 1)`,
			expect: `(f : 1)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.input)
			if got != tt.expect {
				t.Errorf("translate(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}
