package teams

import (
	"sort"
)

// SortByParentDepth orders teams so every team appears after its parent,
// regardless of hierarchy depth. Depth is the length of the parent chain; a
// parent slug absent from the listing counts as depth zero, which makes the
// orphaned child a root. Ties are broken by slug for a deterministic order.
func SortByParentDepth(discoveredTeams []Team) []Team {
	teamsBySlug := make(map[string]Team, len(discoveredTeams))
	for _, discoveredTeam := range discoveredTeams {
		teamsBySlug[discoveredTeam.Slug] = discoveredTeam
	}

	depthMemo := make(map[string]int, len(discoveredTeams))
	orderedTeams := append([]Team(nil), discoveredTeams...)

	sort.SliceStable(orderedTeams, func(firstIndex int, secondIndex int) bool {
		firstDepth := parentChainDepth(orderedTeams[firstIndex].Slug, teamsBySlug, depthMemo)
		secondDepth := parentChainDepth(orderedTeams[secondIndex].Slug, teamsBySlug, depthMemo)
		if firstDepth != secondDepth {
			return firstDepth < secondDepth
		}
		return orderedTeams[firstIndex].Slug < orderedTeams[secondIndex].Slug
	})

	return orderedTeams
}

func parentChainDepth(teamSlug string, teamsBySlug map[string]Team, depthMemo map[string]int) int {
	if memoizedDepth, memoExists := depthMemo[teamSlug]; memoExists {
		return memoizedDepth
	}

	chainDepth := 0
	currentSlug := teamSlug
	// The platform forbids cycles; the bound guards against corrupted listings.
	for hop := 0; hop < len(teamsBySlug); hop++ {
		currentTeam, teamExists := teamsBySlug[currentSlug]
		if !teamExists || len(currentTeam.ParentSlug) == 0 {
			break
		}
		if _, parentExists := teamsBySlug[currentTeam.ParentSlug]; !parentExists {
			break
		}
		chainDepth++
		currentSlug = currentTeam.ParentSlug
	}

	depthMemo[teamSlug] = chainDepth
	return chainDepth
}

// HierarchyNode is one entry in the nested hierarchy report.
type HierarchyNode struct {
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Children []*HierarchyNode `json:"children,omitempty"`
}

// BuildHierarchy renders the nested team forest. The adjacency structure is
// assembled first; the traversal that produces the report mutates nothing.
func BuildHierarchy(discoveredTeams []Team) []*HierarchyNode {
	teamsBySlug := make(map[string]Team, len(discoveredTeams))
	childrenByParentSlug := make(map[string][]string, len(discoveredTeams))
	rootSlugs := []string{}

	for _, discoveredTeam := range discoveredTeams {
		teamsBySlug[discoveredTeam.Slug] = discoveredTeam
	}

	for _, discoveredTeam := range discoveredTeams {
		parentSlug := discoveredTeam.ParentSlug
		if _, parentExists := teamsBySlug[parentSlug]; len(parentSlug) > 0 && parentExists {
			childrenByParentSlug[parentSlug] = append(childrenByParentSlug[parentSlug], discoveredTeam.Slug)
			continue
		}
		rootSlugs = append(rootSlugs, discoveredTeam.Slug)
	}

	sort.Strings(rootSlugs)
	for parentSlug := range childrenByParentSlug {
		sort.Strings(childrenByParentSlug[parentSlug])
	}

	rootNodes := make([]*HierarchyNode, 0, len(rootSlugs))
	for _, rootSlug := range rootSlugs {
		rootNodes = append(rootNodes, renderHierarchyNode(rootSlug, teamsBySlug, childrenByParentSlug))
	}

	return rootNodes
}

func renderHierarchyNode(teamSlug string, teamsBySlug map[string]Team, childrenByParentSlug map[string][]string) *HierarchyNode {
	renderedNode := &HierarchyNode{
		Slug: teamSlug,
		Name: teamsBySlug[teamSlug].Name,
	}

	for _, childSlug := range childrenByParentSlug[teamSlug] {
		renderedNode.Children = append(renderedNode.Children, renderHierarchyNode(childSlug, teamsBySlug, childrenByParentSlug))
	}

	return renderedNode
}
