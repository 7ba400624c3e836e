package entities

import (
	"encoding/json"
	"fmt"
	"sort"
)

// CategorySet is a non-exclusive set of data categories. The JSON form is a
// sorted array of category values.
type CategorySet map[DataCategory]struct{}

// NewCategorySet builds a set from the given categories
func NewCategorySet(categories ...DataCategory) CategorySet {
	set := make(CategorySet, len(categories))
	for _, category := range categories {
		set[category] = struct{}{}
	}
	return set
}

// AllCategoriesSet returns a set containing every defined data category
func AllCategoriesSet() CategorySet {
	return NewCategorySet(AllDataCategories()...)
}

// CategorySetFromValues builds a set from raw string values, rejecting
// unknown categories.
func CategorySetFromValues(values []string) (CategorySet, error) {
	set := make(CategorySet, len(values))
	for _, value := range values {
		category := DataCategory(value)
		if !category.IsValid() {
			return nil, fmt.Errorf("invalid data category: %s", value)
		}
		set[category] = struct{}{}
	}
	return set, nil
}

// Contains reports whether the set includes the given category
func (s CategorySet) Contains(category DataCategory) bool {
	_, ok := s[category]
	return ok
}

// Len returns the number of categories in the set
func (s CategorySet) Len() int {
	return len(s)
}

// IsEmpty reports whether the set has no categories
func (s CategorySet) IsEmpty() bool {
	return len(s) == 0
}

// Slice returns the categories in sorted order
func (s CategorySet) Slice() []DataCategory {
	categories := make([]DataCategory, 0, len(s))
	for category := range s {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// Values returns the sorted string values of the categories
func (s CategorySet) Values() []string {
	categories := s.Slice()
	values := make([]string, len(categories))
	for i, category := range categories {
		values[i] = string(category)
	}
	return values
}

// Clone returns an independent copy of the set
func (s CategorySet) Clone() CategorySet {
	clone := make(CategorySet, len(s))
	for category := range s {
		clone[category] = struct{}{}
	}
	return clone
}

// MarshalJSON encodes the set as a sorted array of category values
func (s CategorySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes an array of category values, rejecting unknown ones
func (s *CategorySet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	set, err := CategorySetFromValues(values)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
