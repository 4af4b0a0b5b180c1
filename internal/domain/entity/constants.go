package entity

// History action types
const (
	ActionCreate                = "CREATE"
	ActionValidateCB            = "VALIDATE_CB"
	ActionRejectCB              = "REJECT_CB"
	ActionValidateOperationType = "VALIDATE_OPERATION_TYPE"
	ActionSubmitVerifications   = "SUBMIT_VERIFICATIONS"
	ActionOrdonnance            = "ORDONNANCE"
	ActionValidateDefinitively  = "VALIDATE_DEFINITIVELY"
	ActionGenerateQuitus        = "GENERATE_QUITUS"
	ActionClose                 = "CLOSE"
	ActionAttachDocument        = "ATTACH_DOCUMENT"
	ActionDetachDocument        = "DETACH_DOCUMENT"
)

// Dashboard views. "paye" and "recettes" are projections over TERMINÉ, not states.
const (
	ViewAll      = ""
	ViewPaye     = "paye"
	ViewRecettes = "recettes"
	ViewEnCours  = "en_cours"
)
