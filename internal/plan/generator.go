// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"fmt"

	"github.com/jeranaias/olla-cli/internal/intent"
)

// Generate builds a plan for a classified request. Plans stay small: one or
// two canned steps per intent. Anything the classifier cannot place becomes
// a single analyze step so the model still gets a chance to answer.
func Generate(request string, result intent.Result) *Plan {
	p := NewPlan(request)

	switch result.Type {
	case intent.TypeComplexTask:
		generateComplexTask(p, request, result)

	case intent.TypeExplain, intent.TypeReview, intent.TypeRefactor,
		intent.TypeDebug, intent.TypeDocument, intent.TypeTest:
		if result.Params.FilePath != "" {
			p.AddStep(ActionReadFile,
				fmt.Sprintf("Read %s", result.Params.FilePath),
				map[string]string{"path": result.Params.FilePath, "store_as": "file_content"})
			p.AddStep(ActionAnalyze,
				fmt.Sprintf("%s the file contents", verbFor(result.Type)),
				map[string]string{"request": request + "\n\nCode:\n${file_content}"})
		} else {
			p.AddStep(ActionAnalyze, verbFor(result.Type)+" the provided input",
				map[string]string{"request": request})
		}

	case intent.TypeGenerate:
		p.AddStep(ActionGenerate, "Generate the requested code",
			map[string]string{"request": request, "language": result.Params.Language, "store_as": "generated"})

	default:
		p.AddStep(ActionAnalyze, "Answer the request",
			map[string]string{"request": request})
	}
	return p
}

// generateComplexTask plans generate-then-write when the request names a
// destination file, otherwise a lone generate step.
func generateComplexTask(p *Plan, request string, result intent.Result) {
	p.AddStep(ActionGenerate, "Generate the requested artifact",
		map[string]string{"request": request, "language": result.Params.Language, "store_as": "generated"})

	if result.Params.FilePath != "" {
		p.AddStep(ActionWriteFile,
			fmt.Sprintf("Write result to %s", result.Params.FilePath),
			map[string]string{"path": result.Params.FilePath, "content": "${generated}"})
	}
}

func verbFor(t intent.Type) string {
	switch t {
	case intent.TypeExplain:
		return "Explain"
	case intent.TypeReview:
		return "Review"
	case intent.TypeRefactor:
		return "Refactor"
	case intent.TypeDebug:
		return "Debug"
	case intent.TypeDocument:
		return "Document"
	case intent.TypeTest:
		return "Write tests for"
	}
	return "Analyze"
}
