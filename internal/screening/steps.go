package screening

// DefaultSteps returns the screening chain in execution order. Cheap
// local rules run before store lookups.
func DefaultSteps(ignoreTracked bool) []Filter {
	return []Filter{
		NewCompanies(),
		NewExcludeFile(),
		NewTracked(ignoreTracked),
	}
}
