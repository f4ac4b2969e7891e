// Package forge models the documents of a Forge workspace.
//
// A workspace keeps its documents under an ai/ directory, one subdirectory
// per [Kind]:
//
//	ai/actors/shopper.actor.md
//	ai/features/checkout.feature.md
//	ai/diagrams/checkout.diagram.md
//	ai/specs/payments.spec.md
//	ai/sessions/3f2c....session.md
//
// Every document is Markdown with YAML frontmatter. [Template] renders the
// initial text of a new document, [Discover] lists the documents of a
// workspace and [ReadSession] decodes the frontmatter of a work session,
// including the files it changed.
package forge
