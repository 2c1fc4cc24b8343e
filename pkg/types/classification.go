package types

// SemanticClass is the closed set of entity categories an upstream
// recogniser may assign. Classes form a tree rooted at ClassEntity.
type SemanticClass string

// Semantic class constants
const (
	ClassEntity          SemanticClass = "entity"
	ClassPerson          SemanticClass = "person"
	ClassNationality     SemanticClass = "nationality"
	ClassOrganisation    SemanticClass = "organisation"
	ClassLocation        SemanticClass = "location"
	ClassCoordinate      SemanticClass = "coordinate"
	ClassMoney           SemanticClass = "money"
	ClassTemporal        SemanticClass = "temporal"
	ClassVehicle         SemanticClass = "vehicle"
	ClassWeapon          SemanticClass = "weapon"
	ClassQuantity        SemanticClass = "quantity"
	ClassFrequency       SemanticClass = "frequency"
	ClassURL             SemanticClass = "url"
	ClassCommsIdentifier SemanticClass = "comms_identifier"
)

// classParents is the subsumption table. A class absent from the map is a
// direct child of ClassEntity; ClassEntity itself has no parent.
var classParents = map[SemanticClass]SemanticClass{
	ClassPerson:          ClassEntity,
	ClassNationality:     ClassEntity,
	ClassOrganisation:    ClassEntity,
	ClassLocation:        ClassEntity,
	ClassCoordinate:      ClassLocation,
	ClassMoney:           ClassEntity,
	ClassTemporal:        ClassEntity,
	ClassVehicle:         ClassEntity,
	ClassWeapon:          ClassEntity,
	ClassQuantity:        ClassEntity,
	ClassFrequency:       ClassEntity,
	ClassURL:             ClassEntity,
	ClassCommsIdentifier: ClassEntity,
}

// ValidSemanticClasses is a slice of all valid semantic classes for validation
var ValidSemanticClasses = []SemanticClass{
	ClassEntity,
	ClassPerson,
	ClassNationality,
	ClassOrganisation,
	ClassLocation,
	ClassCoordinate,
	ClassMoney,
	ClassTemporal,
	ClassVehicle,
	ClassWeapon,
	ClassQuantity,
	ClassFrequency,
	ClassURL,
	ClassCommsIdentifier,
}

// IsValidSemanticClass checks if the given class is part of the closed set
func IsValidSemanticClass(c SemanticClass) bool {
	for _, v := range ValidSemanticClasses {
		if v == c {
			return true
		}
	}
	return false
}

// Parent returns the direct superclass of c and false for the root or an
// unknown class.
func (c SemanticClass) Parent() (SemanticClass, bool) {
	p, ok := classParents[c]
	return p, ok
}

// IsA reports whether c equals other or is one of its descendants.
func (c SemanticClass) IsA(other SemanticClass) bool {
	if !IsValidSemanticClass(c) || !IsValidSemanticClass(other) {
		return false
	}
	for cur := c; ; {
		if cur == other {
			return true
		}
		p, ok := classParents[cur]
		if !ok {
			return false
		}
		cur = p
	}
}

// Assignable reports whether one class subsumes the other, in either direction.
func Assignable(a, b SemanticClass) bool {
	return a.IsA(b) || b.IsA(a)
}
