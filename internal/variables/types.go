package variables

const (
	allVisibilityValueConstant      = "all"
	privateVisibilityValueConstant  = "private"
	selectedVisibilityValueConstant = "selected"
)

// Visibility enumerates organization variable visibility values.
type Visibility string

// Organization variable visibility enumerations.
const (
	VisibilityAll      Visibility = Visibility(allVisibilityValueConstant)
	VisibilityPrivate  Visibility = Visibility(privateVisibilityValueConstant)
	VisibilitySelected Visibility = Visibility(selectedVisibilityValueConstant)
)

// OrganizationVariable describes one org-scoped variable, including the
// repository names granted access when visibility is selected.
type OrganizationVariable struct {
	Name                    string
	Value                   string
	Visibility              Visibility
	SelectedRepositoryNames []string
}

// RepositoryVariable describes one repo-scoped variable.
type RepositoryVariable struct {
	RepositoryName string
	Name           string
	Value          string
}
