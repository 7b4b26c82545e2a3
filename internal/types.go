package internal

// Canonical warehouse table names. LoadOrder is the insertion order the
// loader must respect: dimensions first, the fact table last, so foreign
// keys resolve on insert.
const (
	TableSites        = "dim_sedes"
	TableTxTypes      = "dim_tipo_transaccion"
	TableDistributors = "dim_distribuidores"
	TableClients      = "dim_clientes"
	TableTransactions = "fct_transacciones"
)

var LoadOrder = []string{
	TableSites,
	TableTxTypes,
	TableDistributors,
	TableClients,
	TableTransactions,
}

// Canonical column names of the five output tables.
const (
	ColSiteID   = "id_sede"
	ColSiteName = "nombre_sede"

	ColTxTypeID   = "id_tipo_trx"
	ColTxTypeDesc = "descripcion_tipo"

	ColDistributorID   = "id_distribuidor"
	ColDistributorName = "nombre_distribuidor"

	ColClientID        = "id_cliente"
	ColAffiliationDate = "fecha_afiliacion"
	ColFirstTxDate     = "fecha_primera_trx"
	ColPhone           = "telefono"
	ColCategory        = "categoria"
	ColReferrals       = "recomendados"

	ColTxID     = "id_trx"
	ColTxDate   = "fecha_trx"
	ColTxAmount = "monto"
	ColTxFee    = "fee"
)

// Source column names as they arrive from the recommendations JSON and the
// clients sheet. The transactions sheet is positional and its headers are
// never trusted.
const (
	SrcClientID        = "IDCLIENTE"
	SrcDistributorID   = "IDDISTRIBUIDOR"
	SrcDistributorName = "NOMBRE DISTRIBUIDOR"
	SrcPhone           = "TELEFONO"
	SrcCategory        = "categoría"
	SrcReferrals       = "recomendados"
	SrcAffiliationDate = "fechaafiliacion"
	SrcFirstTxDate     = "fechaprimertrx"
)

type WarningStage string

const (
	StageSplit     WarningStage = "catalog_split"
	StageReconcile WarningStage = "reconcile"
	StageCast      WarningStage = "type_cast"
)

// Warning is a recoverable data-quality finding surfaced by the transform.
// Warnings never abort a run; they ride along with the result so the caller
// can persist or report them.
type Warning struct {
	Stage   WarningStage `json:"stage"`
	Message string       `json:"message"`
}

// RunRecord is one row of the local run ledger.
type RunRecord struct {
	ID         int
	TraceID    string
	Status     string
	StartedAt  string
	FinishedAt *string
	Counts     map[string]int
	Warnings   []Warning
	Error      *string
}
