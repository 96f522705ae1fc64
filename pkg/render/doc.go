// Package render implements the render service: a stateless mapping from a
// template name and its parameters to an HTML fragment, served as a resource
// tree whose root advertises one templated link per template.
package render
