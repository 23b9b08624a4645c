// Package prompt assembles the cross-chunk analysis prompt from collected
// chunk summaries.
//
// The header, divider, and surrounding instruction text are contracts with the
// downstream analysis stage that consumes the stored prompt; change them only
// in step with that consumer. Assembly is pure string work: Section formats
// one summary, Combine joins sections with the divider, Build wraps the result
// in the instruction template, and Key names the blob the prompt is stored
// under.
package prompt
