package report

import (
	"testing"

	"codescope/internal/analysis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMinimalFields(t *testing.T) {
	pdfBytes, err := Render(&Fields{
		DetectedLanguage: "python",
		QualityScore:     80,
	})
	require.NoError(t, err)
	require.NotEmpty(t, pdfBytes)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestRenderFullReport(t *testing.T) {
	fields := &Fields{
		Title:                "FizzBuzz Review",
		DetectedLanguage:     "python",
		QualityScore:         72,
		MaintainabilityIndex: 65,
		ReadabilityScore:     88,
		IntegrityCheck:       "original work",
		PlagiarismCheck:      "no known matches",
		OriginalCode:         "for i in range(100)\n    print(i)",
		FinalCode:            "for i in range(100):\n    print(i)",
		TargetComplexity:     "O(n)",
		ErrorTable: []analysis.ErrorEntry{
			{Line: 1, Error: "missing colon after range(100)"},
		},
		CodeExplanation: []analysis.ExplanationEntry{
			{Line: 1, Code: "for i in range(100):", Explanation: "iterates 0..99"},
		},
		Complexity: analysis.Complexity{
			Time:  analysis.ComplexityBounds{Best: "O(n)", Average: "O(n)", Worst: "O(n)", Desc: "single pass"},
			Space: analysis.ComplexityBounds{Best: "O(1)", Average: "O(1)", Worst: "O(1)", Desc: "constant"},
		},
	}

	pdfBytes, err := Render(fields)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
	// A populated report should be noticeably larger than the bare skeleton.
	assert.Greater(t, len(pdfBytes), 1500)
}

func TestRenderLongCodePaginates(t *testing.T) {
	code := ""
	for i := 0; i < 400; i++ {
		code += "print('line')\n"
	}

	pdfBytes, err := Render(&Fields{FinalCode: code})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}
