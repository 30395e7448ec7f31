package workerpool

import "testing"

func TestNextTarget(t *testing.T) {
	cases := []struct {
		name                                        string
		current, min, max, errorCount, errThreshold int
		want                                        int
	}{
		{"decrements above threshold", 5, 1, 10, 5, 5, 4},
		{"holds at min even above threshold", 1, 1, 10, 10, 5, 1},
		{"increments well below threshold", 5, 1, 10, 1, 5, 6},
		{"holds at max even below half threshold", 10, 1, 10, 0, 5, 10},
		{"holds in the dead zone between half and full threshold", 5, 1, 10, 3, 5, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NextTarget(c.current, c.min, c.max, c.errorCount, c.errThreshold)
			if got != c.want {
				t.Errorf("NextTarget(%d,%d,%d,%d,%d) = %d, want %d",
					c.current, c.min, c.max, c.errorCount, c.errThreshold, got, c.want)
			}
		})
	}
}
