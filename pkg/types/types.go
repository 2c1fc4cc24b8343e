// Package types defines the public data structures of the coreference
// resolver: the annotated document it consumes, the grammatical attribute
// enums it computes, and the reference chains it produces.
package types

// Person is the grammatical person of a mention.
type Person string

// Gender is the grammatical gender of a mention.
type Gender string

// Multiplicity is the grammatical number of a mention.
type Multiplicity string

// Animacy records whether a mention refers to a living being.
type Animacy string

// Person constants
const (
	PersonFirst   Person = "first"
	PersonSecond  Person = "second"
	PersonThird   Person = "third"
	PersonUnknown Person = "unknown"
)

// Gender constants
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeuter  Gender = "neuter"
	GenderUnknown Gender = "unknown"
)

// Multiplicity constants
const (
	MultiplicitySingular Multiplicity = "singular"
	MultiplicityPlural   Multiplicity = "plural"
	MultiplicityUnknown  Multiplicity = "unknown"
)

// Animacy constants
const (
	AnimacyAnimate   Animacy = "animate"
	AnimacyInanimate Animacy = "inanimate"
	AnimacyUnknown   Animacy = "unknown"
)

// ValidPersons is a slice of all valid person values for validation
var ValidPersons = []Person{PersonFirst, PersonSecond, PersonThird, PersonUnknown}

// ValidGenders is a slice of all valid gender values for validation
var ValidGenders = []Gender{GenderMale, GenderFemale, GenderNeuter, GenderUnknown}

// ValidMultiplicities is a slice of all valid multiplicity values for validation
var ValidMultiplicities = []Multiplicity{MultiplicitySingular, MultiplicityPlural, MultiplicityUnknown}

// ValidAnimacies is a slice of all valid animacy values for validation
var ValidAnimacies = []Animacy{AnimacyAnimate, AnimacyInanimate, AnimacyUnknown}

// IsValidPerson checks if the given person value is valid
func IsValidPerson(p Person) bool {
	for _, v := range ValidPersons {
		if v == p {
			return true
		}
	}
	return false
}

// IsValidGender checks if the given gender value is valid
func IsValidGender(g Gender) bool {
	for _, v := range ValidGenders {
		if v == g {
			return true
		}
	}
	return false
}

// IsValidMultiplicity checks if the given multiplicity value is valid
func IsValidMultiplicity(m Multiplicity) bool {
	for _, v := range ValidMultiplicities {
		if v == m {
			return true
		}
	}
	return false
}

// IsValidAnimacy checks if the given animacy value is valid
func IsValidAnimacy(a Animacy) bool {
	for _, v := range ValidAnimacies {
		if v == a {
			return true
		}
	}
	return false
}

// ParseGender maps loose spellings ("m", "Male", "f", "n") onto a Gender.
// Anything unrecognised is GenderUnknown.
func ParseGender(s string) Gender {
	switch s {
	case "m", "M", "male", "Male", "MALE":
		return GenderMale
	case "f", "F", "female", "Female", "FEMALE":
		return GenderFemale
	case "n", "N", "neuter", "Neuter", "NEUTER":
		return GenderNeuter
	}
	return GenderUnknown
}

// ParseMultiplicity maps loose spellings ("s", "sg", "plural") onto a Multiplicity.
func ParseMultiplicity(s string) Multiplicity {
	switch s {
	case "s", "S", "sg", "singular", "Singular", "SINGULAR":
		return MultiplicitySingular
	case "p", "P", "pl", "plural", "Plural", "PLURAL":
		return MultiplicityPlural
	}
	return MultiplicityUnknown
}
