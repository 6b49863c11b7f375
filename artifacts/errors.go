package artifacts

import "fmt"

type (
	NotFound struct {
		Ref string
	}

	EmptyArtifact struct {
		Name string
	}
)

func (n NotFound) Error() string {
	return fmt.Sprintf("artifact %v not found", n.Ref)
}

func (e EmptyArtifact) Error() string {
	return fmt.Sprintf("artifact %v has no content", e.Name)
}
