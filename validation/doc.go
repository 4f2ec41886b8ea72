// Package validation checks flow documents, run requests and configuration.
//
// Struct tags are evaluated with go-playground/validator; field names in
// messages use the json tag of each field. Checks that span several
// fields (unique ids, edge references) are collected with a Validator:
//
//	v := validation.New()
//	v.Required("nodes[0].id", n.ID)
//	if err := v.Validate(); err != nil {
//	    return err
//	}
package validation
