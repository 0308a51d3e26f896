package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradeForBands(t *testing.T) {
	cases := []struct {
		percentage float64
		grade      string
		gpa        float64
	}{
		{95, "A+", 4.0},
		{90, "A+", 4.0},
		{89.9, "A", 4.0},
		{80, "A", 4.0},
		{79.9, "B+", 3.5},
		{70, "B+", 3.5},
		{69.9, "B", 3.0},
		{60, "B", 3.0},
		{59.9, "C", 2.5},
		{50, "C", 2.5},
		{49.9, "D", 2.0},
		{40, "D", 2.0},
		{39.9, "F", 0.0},
		{0, "F", 0.0},
	}
	for _, tc := range cases {
		band := GradeFor(tc.percentage)
		assert.Equal(t, tc.grade, band.Grade, "percentage %v", tc.percentage)
		assert.Equal(t, tc.gpa, band.GPA, "percentage %v", tc.percentage)
	}
}

func TestCGPA(t *testing.T) {
	assert.Equal(t, 0.0, CGPA(nil))
	assert.Equal(t, 4.0, CGPA([]float64{4.0}))
	assert.InDelta(t, 3.5, CGPA([]float64{4.0, 3.0}), 0.0001)
	assert.InDelta(t, 3.1666, CGPA([]float64{4.0, 3.0, 2.5}), 0.001)
}
