// Package report renders audit results into output documents. Renderers
// exist for human-readable text, plain JSON, and SARIF 2.1.0 for code
// scanning integrations.
package report
