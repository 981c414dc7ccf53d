package interactions

import (
	"strings"

	"github.com/medhub/medhub-api/entities"
)

// lookupStatic checks the interaction table in both orders
func lookupStatic(a, b string) *entities.DrugInteraction {
	if in, ok := interactionTable[a][b]; ok {
		return &in
	}
	if in, ok := interactionTable[b][a]; ok {
		return &in
	}
	return nil
}

// categoriesOf returns the categories a name belongs to. A name is a member
// when it contains a member string or is contained by one, so brand and salt
// variants ("warfarin sodium") still match.
func categoriesOf(name string) []string {
	var categories []string
	for _, category := range categoryRegistry {
		for _, member := range category.members {
			if strings.Contains(name, member) || strings.Contains(member, name) {
				categories = append(categories, category.name)
				break
			}
		}
	}
	return categories
}

func (r categoryRule) applies(categoryA, categoryB, a, b string) bool {
	if r.distinctNames && a == b {
		return false
	}
	return (categoryA == r.first && categoryB == r.second) ||
		(categoryA == r.second && categoryB == r.first)
}

// lookupCategory applies the category rules in order. Rules are the outer
// loop so that swapping a and b always yields the same rule.
func lookupCategory(a, b string) *entities.DrugInteraction {
	categoriesA := categoriesOf(a)
	if len(categoriesA) == 0 {
		return nil
	}
	categoriesB := categoriesOf(b)
	if len(categoriesB) == 0 {
		return nil
	}

	for _, rule := range categoryRules {
		for _, ca := range categoriesA {
			for _, cb := range categoriesB {
				if rule.applies(ca, cb, a, b) {
					in := rule.interaction
					return &in
				}
			}
		}
	}
	return nil
}

// lookupTherapeuticClass compares the reference rows of both medicines.
// Either row may be nil when the lookup found nothing or failed.
func lookupTherapeuticClass(a, b *entities.ReferenceMedicine) *entities.DrugInteraction {
	classA, okA := a.Class()
	classB, okB := b.Class()
	if !okA || !okB {
		return nil
	}

	lowerA := strings.ToLower(classA)
	lowerB := strings.ToLower(classB)

	if classA == classB {
		for _, fragment := range interactionProneClasses {
			if strings.Contains(lowerA, fragment) {
				in := sameClassInteraction(classA)
				return &in
			}
		}
	}

	for _, pair := range bleedingClassPairs {
		if (strings.Contains(lowerA, pair[0]) && strings.Contains(lowerB, pair[1])) ||
			(strings.Contains(lowerA, pair[1]) && strings.Contains(lowerB, pair[0])) {
			in := bleedingClassInteraction
			return &in
		}
	}

	return nil
}
