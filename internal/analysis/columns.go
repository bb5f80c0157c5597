package analysis

// Dataset names as they appear under INPUT in the configuration.
const (
	DatasetPerson = "Primary_Person"
	DatasetUnit   = "Units"
	DatasetDamage = "Damages"
	DatasetCharge = "Charges"
)

// Column names of the crash extracts.
const (
	colCrashID = "CRASH_ID"

	// Primary_Person
	colGender      = "PRSN_GNDR_ID"
	colLicState    = "DRVR_LIC_STATE_ID"
	colLicType     = "DRVR_LIC_TYPE_ID"
	colEthnicity   = "PRSN_ETHNICITY_ID"
	colDriverZip   = "DRVR_ZIP"
	colAlcoholTest = "PRSN_ALC_RSLT_ID"

	// Units
	colBodyStyle   = "VEH_BODY_STYL_ID"
	colUnitDesc    = "UNIT_DESC_ID"
	colMake        = "VEH_MAKE_ID"
	colInjuries    = "TOT_INJRY_CNT"
	colDeaths      = "DEATH_CNT"
	colFactor1     = "CONTRIB_FACTR_1_ID"
	colFactor2     = "CONTRIB_FACTR_2_ID"
	colDamage1     = "VEH_DMAG_SCL_1_ID"
	colDamage2     = "VEH_DMAG_SCL_2_ID"
	colFinResp     = "FIN_RESP_TYPE_ID"
	colColor       = "VEH_COLOR_ID"
	colVehLicState = "VEH_LIC_STATE_ID"

	// Damages
	colDamagedProperty = "DAMAGED_PROPERTY"

	// Charges
	colCharge = "CHARGE"
)

// Derived columns.
const (
	colAllInjuries   = "ALL_INJURIES"
	colTotalInjuries = "total_injuries"
	colCount         = "count"
)

// Qualifiers for right-side columns that collide in joins.
const (
	qualUnit   = "unit"
	qualPerson = "person"
	qualCharge = "charge"
)
