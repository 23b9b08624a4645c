package prompt

import (
	"fmt"
	"strings"
)

// FileName is the blob name the collated prompt is stored under.
const FileName = "aggregated_analysis_prompt.txt"

// ContentType is the MIME type recorded when storing the prompt.
const ContentType = "text/plain"

const dividerWidth = 80

// Divider separates chunk sections in the combined prompt body.
var Divider = strings.Repeat("=", dividerWidth)

var sectionSeparator = "\n\n" + Divider + "\n\n"

const promptTemplate = `Please analyze the following mainframe documentation summaries and provide comprehensive modernization recommendations with structured AWS implementations.

**CROSS-CHUNK ANALYSIS REQUIRED:**
Perform cross-chunk analysis to identify:
- Common patterns and shared components across chunks
- Integration points between different system components
- Consolidated data models and shared services
- Unified security and compliance requirements
- End-to-end workflow orchestration needs

**CHUNK SUMMARIES TO ANALYZE:**

%s

**REQUIRED OUTPUT:**
Provide a complete modernization solution organized by AWS service categories. Create specific implementation files for each service category with cross-chunk integration considerations.

Focus on:
- Production-ready, secure implementations
- Cross-chunk component integration
- Unified data architecture
- End-to-end workflow orchestration
- Consolidated security model
- Cost optimization strategies
- Migration-specific considerations for mainframe workloads

Provide complete, deployable code for each component with proper cross-system integration.
`

// Section formats one chunk summary under its analysis header.
func Section(chunkIndex int, content string) string {
	return fmt.Sprintf("## CHUNK %d ANALYSIS\n\n%s", chunkIndex, content)
}

// Combine joins chunk sections with the divider the downstream consumer
// expects between sections.
func Combine(sections []string) string {
	return strings.Join(sections, sectionSeparator)
}

// Build renders the full cross-chunk analysis prompt around the combined
// chunk sections.
func Build(combined string) string {
	return fmt.Sprintf(promptTemplate, combined)
}

// Key returns the object key the collated prompt is stored under for a job.
// The output path is expected to be normalized without a trailing slash.
func Key(outputPath, jobID string) string {
	return fmt.Sprintf("%s/%s/%s", outputPath, jobID, FileName)
}
