package service

// GradeBand maps a percentage to a letter grade and grade points.
type GradeBand struct {
	Grade string
	GPA   float64
}

// GradeFor applies the fixed university grading scale to a percentage.
func GradeFor(percentage float64) GradeBand {
	switch {
	case percentage >= 90:
		return GradeBand{Grade: "A+", GPA: 4.0}
	case percentage >= 80:
		return GradeBand{Grade: "A", GPA: 4.0}
	case percentage >= 70:
		return GradeBand{Grade: "B+", GPA: 3.5}
	case percentage >= 60:
		return GradeBand{Grade: "B", GPA: 3.0}
	case percentage >= 50:
		return GradeBand{Grade: "C", GPA: 2.5}
	case percentage >= 40:
		return GradeBand{Grade: "D", GPA: 2.0}
	default:
		return GradeBand{Grade: "F", GPA: 0.0}
	}
}

// CGPA averages grade points across results. Zero results yields 0.
func CGPA(gpas []float64) float64 {
	if len(gpas) == 0 {
		return 0
	}
	var sum float64
	for _, gpa := range gpas {
		sum += gpa
	}
	return sum / float64(len(gpas))
}
