// Package docissue turns an investigation and a selection of its evidence
// into a documentation issue draft. It only resolves IDs and assembles the
// draft; filing the issue with a tracker belongs to the caller.
package docissue
