// Package transparency explains how the engine reached an answer.
//
// The explainer is opt-in: the core path never calls it. Surfaces invoke it
// on demand (the "why" command, the chat /why toggle, the HTTP debug field)
// to show which routing rules were tried, which one fired, what the snapshot
// looked like after validation and which records were set aside.
package transparency
