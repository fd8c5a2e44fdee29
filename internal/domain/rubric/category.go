package rubric

import (
	"fmt"

	apperrors "interview-eval-go/internal/platform/errors"
)

// Category identifies one evaluation axis.
type Category string

const (
	Communication    Category = "COMMUNICATION"
	JobCompatibility Category = "JOB_COMPATIBILITY"
	OrgFit           Category = "ORG_FIT"
	TechStack        Category = "TECH_STACK"
	ProblemSolving   Category = "PROBLEM_SOLVING"
)

// DisplayName returns the Korean name used in responses and reports.
func (c Category) DisplayName() string {
	switch c {
	case Communication:
		return "의사소통 능력"
	case JobCompatibility:
		return "직무적합도"
	case OrgFit:
		return "조직적합도"
	case TechStack:
		return "보유역량"
	case ProblemSolving:
		return "문제해결력"
	}
	return string(c)
}

func (c Category) valid() bool {
	switch c {
	case Communication, JobCompatibility, OrgFit, TechStack, ProblemSolving:
		return true
	}
	return false
}

// questionCategories maps each interview question to the axes it is
// evaluated on. Question order within a slice is the merge order for
// aggregated keyword lists.
var questionCategories = map[int][]Category{
	1: {Communication, OrgFit, JobCompatibility, TechStack},
	2: {Communication, OrgFit, JobCompatibility, TechStack},
	3: {Communication, OrgFit, ProblemSolving},
	4: {Communication, OrgFit, JobCompatibility, TechStack, ProblemSolving},
	5: {Communication, OrgFit, JobCompatibility, TechStack, ProblemSolving},
	6: {Communication, OrgFit, JobCompatibility},
	7: {Communication, OrgFit, ProblemSolving},
}

// CategoriesForQuestion returns the evaluation axes for a question
// number. Questions outside 1..7 are rejected.
func CategoriesForQuestion(questionNum int) ([]Category, error) {
	cats, ok := questionCategories[questionNum]
	if !ok {
		return nil, apperrors.New(apperrors.KindValidation, "rubric.categories",
			fmt.Sprintf("unsupported question number %d", questionNum))
	}
	out := make([]Category, len(cats))
	copy(out, cats)
	return out, nil
}
