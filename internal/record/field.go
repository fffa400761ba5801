package record

// FieldName identifies one of the eight positional record fields.
type FieldName int

const (
	FieldID FieldName = iota
	FieldVersion
	FieldIssueDate
	FieldNames
	FieldFirstSurnameInitial
	FieldShortBirthdate
	FieldCertificateExpiration
	FieldVaccineType
)

// Fields lists every field in wire order.
var Fields = []FieldName{
	FieldID,
	FieldVersion,
	FieldIssueDate,
	FieldNames,
	FieldFirstSurnameInitial,
	FieldShortBirthdate,
	FieldCertificateExpiration,
	FieldVaccineType,
}

func (f FieldName) String() string {
	switch f {
	case FieldID:
		return "Id"
	case FieldVersion:
		return "Version"
	case FieldIssueDate:
		return "IssueDate"
	case FieldNames:
		return "Names"
	case FieldFirstSurnameInitial:
		return "FirstSurnameInitial"
	case FieldShortBirthdate:
		return "ShortBirthdate"
	case FieldCertificateExpiration:
		return "CertificateExpiration"
	case FieldVaccineType:
		return "VaccineType"
	default:
		return "Unknown"
	}
}

// SourceKey returns the issuer's own key for the field.
func (f FieldName) SourceKey() string {
	switch f {
	case FieldID:
		return "szczepienieId"
	case FieldVersion:
		return "wersjaZasobu"
	case FieldIssueDate:
		return "dataWydania"
	case FieldNames:
		return "imiona"
	case FieldFirstSurnameInitial:
		return "pierwszaLiteraNazwiska"
	case FieldShortBirthdate:
		return "skroconaDataUrodzenia"
	case FieldCertificateExpiration:
		return "dataWaznosciDowodu"
	case FieldVaccineType:
		return "danaTechniczna"
	default:
		return ""
	}
}
