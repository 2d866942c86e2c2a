// Package visibility provides an attribute.Controller decorator that hides attributes
// whose status is below a minimum, e.g. disabled (0) or review (-1) attributes in a shop frontend.
package visibility
