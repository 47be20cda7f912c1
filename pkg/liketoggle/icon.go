package liketoggle

import "strings"

// Star icon classes (Bootstrap Icons).
const (
	ClassStar      = "bi-star"
	ClassStarFill  = "bi-star-fill"
	ClassHighlight = "text-warning"
)

// IconClasses returns the state classes of the icon for favorited.
func IconClasses(favorited bool) string {
	if favorited {
		return ClassStarFill + " " + ClassHighlight
	}
	return ClassStar
}

// ClassList is the ordered, duplicate free class attribute of an element.
// It is not safe for concurrent use; Control serializes access to its icon.
type ClassList struct {
	classes []string
}

// ParseClassList splits a class attribute value.
func ParseClassList(attr string) *ClassList {
	l := &ClassList{}
	l.Add(strings.Fields(attr)...)
	return l
}

func (l *ClassList) Add(classes ...string) {
	for _, c := range classes {
		if c != "" && !l.Contains(c) {
			l.classes = append(l.classes, c)
		}
	}
}

func (l *ClassList) Remove(classes ...string) {
	kept := l.classes[:0]
	for _, existing := range l.classes {
		drop := false
		for _, c := range classes {
			if existing == c {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, existing)
		}
	}
	l.classes = kept
}

func (l *ClassList) Contains(class string) bool {
	for _, c := range l.classes {
		if c == class {
			return true
		}
	}
	return false
}

// Classes returns a copy of the classes in insertion order.
func (l *ClassList) Classes() []string {
	out := make([]string, len(l.classes))
	copy(out, l.classes)
	return out
}

func (l *ClassList) String() string {
	return strings.Join(l.classes, " ")
}

// ApplyFavorited switches the icon between the filled, highlighted star and
// the outlined one.
func (l *ClassList) ApplyFavorited(favorited bool) {
	if favorited {
		l.Remove(ClassStar)
		l.Add(ClassStarFill, ClassHighlight)
		return
	}
	l.Remove(ClassStarFill, ClassHighlight)
	l.Add(ClassStar)
}
