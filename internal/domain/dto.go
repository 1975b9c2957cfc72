package domain

import "time"

// ============================================================================
// SRF create
// ============================================================================

// SRFCreateRequest carries the intake fields common to both variants.
// SRFNumber is either a full identifier or "NEW/<sub>" to allocate a base.
type SRFCreateRequest struct {
	SRFNumber             string     `json:"srfNumber" validate:"required,max=10"`
	Name                  string     `json:"name" validate:"required,max=60"`
	SRFDate               time.Time  `json:"srfDate" validate:"required"`
	Head                  string     `json:"head" validate:"required,oneof=REPAIR REPLACE"`
	Division              string     `json:"division" validate:"required,max=15"`
	Model                 string     `json:"model" validate:"required,max=30"`
	SerialNumber          string     `json:"serialNumber" validate:"required,max=20"`
	Problem               string     `json:"problem" validate:"required,max=30"`
	Remark                *string    `json:"remark,omitempty" validate:"omitempty,max=40"`
	Chargeable            string     `json:"chargeable,omitempty" validate:"omitempty,oneof=Y N"`
	DealerName            *string    `json:"dealerName,omitempty" validate:"omitempty,max=30"`
	RPM                   *int       `json:"rpm,omitempty" validate:"omitempty,gte=0"`
	PurchaseNumber        *string    `json:"purchaseNumber,omitempty" validate:"omitempty,max=15"`
	PurchaseDate          *time.Time `json:"purchaseDate,omitempty"`
	CustomerChallanNumber *string    `json:"customerChallanNumber,omitempty" validate:"omitempty,max=6"`
	CustomerChallanDate   *time.Time `json:"customerChallanDate,omitempty"`
	ReceiveDate           *time.Time `json:"receiveDate,omitempty"`
}

// WarrantyCreateRequest adds the warranty cross references.
type WarrantyCreateRequest struct {
	SRFCreateRequest
	ComplaintNumber *string `json:"complaintNumber,omitempty" validate:"omitempty,max=15"`
	CGSRFNumber     *int64  `json:"cgSrfNumber,omitempty" validate:"omitempty,gt=0"`
	StickerNumber   *string `json:"stickerNumber,omitempty" validate:"omitempty,max=20"`
	ASCName         *string `json:"ascName,omitempty" validate:"omitempty,max=50"`
}

// OutOfWarrantyCreateRequest adds the service charge fields.
type OutOfWarrantyCreateRequest struct {
	SRFCreateRequest
	ServiceCharge         *float64   `json:"serviceCharge,omitempty" validate:"omitempty,gte=0"`
	ServiceChargeWaive    *string    `json:"serviceChargeWaive,omitempty" validate:"omitempty,oneof=Y N"`
	WaiveDetails          *string    `json:"waiveDetails,omitempty" validate:"omitempty,max=40"`
	CustomerInvoiceNumber *string    `json:"customerInvoiceNumber,omitempty" validate:"omitempty,max=16"`
	EstimateDate          *time.Time `json:"estimateDate,omitempty"`
	ASCName               *string    `json:"ascName,omitempty" validate:"omitempty,max=50"`
}

// ============================================================================
// SRF update (nil means unchanged)
// ============================================================================

// IntakeUpdate holds correctable intake fields.
type IntakeUpdate struct {
	Division              *string    `json:"division,omitempty" validate:"omitempty,max=15"`
	Model                 *string    `json:"model,omitempty" validate:"omitempty,max=30"`
	SerialNumber          *string    `json:"serialNumber,omitempty" validate:"omitempty,max=20"`
	Problem               *string    `json:"problem,omitempty" validate:"omitempty,max=30"`
	Remark                *string    `json:"remark,omitempty" validate:"omitempty,max=40"`
	DealerName            *string    `json:"dealerName,omitempty" validate:"omitempty,max=30"`
	RPM                   *int       `json:"rpm,omitempty" validate:"omitempty,gte=0"`
	PurchaseNumber        *string    `json:"purchaseNumber,omitempty" validate:"omitempty,max=15"`
	PurchaseDate          *time.Time `json:"purchaseDate,omitempty"`
	CustomerChallanNumber *string    `json:"customerChallanNumber,omitempty" validate:"omitempty,max=6"`
	CustomerChallanDate   *time.Time `json:"customerChallanDate,omitempty"`
	ReceiveDate           *time.Time `json:"receiveDate,omitempty"`
	WorkDone              *string    `json:"workDone,omitempty" validate:"omitempty,max=50"`
}

// CostingUpdate holds repair and billing amounts. Locked once settlement is proposed.
type CostingUpdate struct {
	RepairDate    *time.Time `json:"repairDate,omitempty"`
	RewindingDone *string    `json:"rewindingDone,omitempty" validate:"omitempty,oneof=Y N"`
	RewindingCost *float64   `json:"rewindingCost,omitempty" validate:"omitempty,gte=0"`
	PaintCost     *int       `json:"paintCost,omitempty" validate:"omitempty,gte=0"`
	StatorCost    *int       `json:"statorCost,omitempty" validate:"omitempty,gte=0"`
	LegCost       *int       `json:"legCost,omitempty" validate:"omitempty,gte=0"`
	Spare1        *string    `json:"spare1,omitempty" validate:"omitempty,max=20"`
	Cost1         *float64   `json:"cost1,omitempty" validate:"omitempty,gte=0"`
	Spare2        *string    `json:"spare2,omitempty" validate:"omitempty,max=20"`
	Cost2         *float64   `json:"cost2,omitempty" validate:"omitempty,gte=0"`
	Spare3        *string    `json:"spare3,omitempty" validate:"omitempty,max=20"`
	Cost3         *float64   `json:"cost3,omitempty" validate:"omitempty,gte=0"`
	Spare4        *string    `json:"spare4,omitempty" validate:"omitempty,max=20"`
	Cost4         *float64   `json:"cost4,omitempty" validate:"omitempty,gte=0"`
	Spare5        *string    `json:"spare5,omitempty" validate:"omitempty,max=20"`
	Cost5         *float64   `json:"cost5,omitempty" validate:"omitempty,gte=0"`
	Spare6        *string    `json:"spare6,omitempty" validate:"omitempty,max=20"`
	Cost6         *float64   `json:"cost6,omitempty" validate:"omitempty,gte=0"`
	SpareCost     *float64   `json:"spareCost,omitempty" validate:"omitempty,gte=0"`
	GodownCost    *float64   `json:"godownCost,omitempty" validate:"omitempty,gte=0"`
	OtherCost     *float64   `json:"otherCost,omitempty" validate:"omitempty,gte=0"`
	Discount      *float64   `json:"discount,omitempty" validate:"omitempty,gte=0"`
	Total         *float64   `json:"total,omitempty"`
	GST           *string    `json:"gst,omitempty" validate:"omitempty,oneof=Y N"`
	GSTAmount     *float64   `json:"gstAmount,omitempty" validate:"omitempty,gte=0"`
	FinalAmount   *float64   `json:"finalAmount,omitempty"`
	RoundOff      *float64   `json:"roundOff,omitempty"`
	Chargeable    *string    `json:"chargeable,omitempty" validate:"omitempty,oneof=Y N"`
}

// VendorCostUpdate holds vendor cost corrections. Locked once vendor settlement is proposed.
type VendorCostUpdate struct {
	VendorCost1      *float64 `json:"vendorCost1,omitempty" validate:"omitempty,gte=0"`
	VendorCost2      *float64 `json:"vendorCost2,omitempty" validate:"omitempty,gte=0"`
	VendorPaint      *string  `json:"vendorPaint,omitempty" validate:"omitempty,oneof=Y N"`
	VendorStator     *string  `json:"vendorStator,omitempty" validate:"omitempty,oneof=Y N"`
	VendorLeg        *string  `json:"vendorLeg,omitempty" validate:"omitempty,oneof=Y N"`
	VendorPaintCost  *int     `json:"vendorPaintCost,omitempty" validate:"omitempty,gte=0"`
	VendorStatorCost *int     `json:"vendorStatorCost,omitempty" validate:"omitempty,gte=0"`
	VendorLegCost    *int     `json:"vendorLegCost,omitempty" validate:"omitempty,gte=0"`
	VendorCost       *float64 `json:"vendorCost,omitempty" validate:"omitempty,gte=0"`
}

// DeliveryUpdate holds delivery and closing fields.
type DeliveryUpdate struct {
	ReceiveAmount *float64   `json:"receiveAmount,omitempty" validate:"omitempty,gte=0"`
	DeliveryDate  *time.Time `json:"deliveryDate,omitempty"`
	DeliveredBy   *string    `json:"deliveredBy,omitempty" validate:"omitempty,max=20"`
	PCNumber      *int       `json:"pcNumber,omitempty" validate:"omitempty,gte=0"`
	InvoiceNumber *int       `json:"invoiceNumber,omitempty" validate:"omitempty,gte=0"`
	InvoiceDate   *time.Time `json:"invoiceDate,omitempty"`
	FinalStatus   *string    `json:"finalStatus,omitempty" validate:"omitempty,oneof=Y N"`
}

// SRFUpdateRequest is the general update contract shared by both variants.
type SRFUpdateRequest struct {
	IntakeUpdate
	CostingUpdate
	VendorCostUpdate
	DeliveryUpdate
}

// WarrantyUpdateRequest adds the warranty cross references.
type WarrantyUpdateRequest struct {
	SRFUpdateRequest
	ComplaintNumber *string `json:"complaintNumber,omitempty" validate:"omitempty,max=15"`
	CGSRFNumber     *int64  `json:"cgSrfNumber,omitempty" validate:"omitempty,gt=0"`
	StickerNumber   *string `json:"stickerNumber,omitempty" validate:"omitempty,max=20"`
	ASCName         *string `json:"ascName,omitempty" validate:"omitempty,max=50"`
}

// OutOfWarrantyUpdateRequest adds the service charge fields.
type OutOfWarrantyUpdateRequest struct {
	SRFUpdateRequest
	ServiceCharge         *float64   `json:"serviceCharge,omitempty" validate:"omitempty,gte=0"`
	ServiceChargeWaive    *string    `json:"serviceChargeWaive,omitempty" validate:"omitempty,oneof=Y N"`
	WaiveDetails          *string    `json:"waiveDetails,omitempty" validate:"omitempty,max=40"`
	CustomerInvoiceNumber *string    `json:"customerInvoiceNumber,omitempty" validate:"omitempty,max=16"`
	EstimateDate          *time.Time `json:"estimateDate,omitempty"`
	CollectionDate        *time.Time `json:"collectionDate,omitempty"`
}

// ============================================================================
// Batches
// ============================================================================

type SettlementItem struct {
	SRFNumber      string    `json:"srfNumber" validate:"required"`
	SettlementDate time.Time `json:"settlementDate" validate:"required"`
}

type SettlementBatchRequest struct {
	Items []SettlementItem `json:"items" validate:"required,min=1,dive"`
}

type FinalSettlementItem struct {
	SRFNumber    string `json:"srfNumber" validate:"required"`
	FinalSettled string `json:"finalSettled" validate:"required,oneof=Y N"`
}

type FinalSettlementBatchRequest struct {
	Items []FinalSettlementItem `json:"items" validate:"required,min=1,dive"`
}

type VendorDispatchItem struct {
	SRFNumber     string    `json:"srfNumber" validate:"required"`
	ChallanNumber string    `json:"challanNumber" validate:"required,max=15"`
	ChallanDate   time.Time `json:"challanDate" validate:"required"`
	Challan       string    `json:"challan" validate:"required,oneof=Y N"`
	ReceivedBy    *string   `json:"receivedBy,omitempty" validate:"omitempty,max=30"`
}

type VendorDispatchBatchRequest struct {
	Items []VendorDispatchItem `json:"items" validate:"required,min=1,dive"`
}

type VendorReturnItem struct {
	SRFNumber        string    `json:"srfNumber" validate:"required"`
	VendorDate2      time.Time `json:"vendorDate2" validate:"required"`
	VendorCost1      *float64  `json:"vendorCost1,omitempty" validate:"omitempty,gte=0"`
	VendorCost2      *float64  `json:"vendorCost2,omitempty" validate:"omitempty,gte=0"`
	VendorPaint      *string   `json:"vendorPaint,omitempty" validate:"omitempty,oneof=Y N"`
	VendorStator     *string   `json:"vendorStator,omitempty" validate:"omitempty,oneof=Y N"`
	VendorLeg        *string   `json:"vendorLeg,omitempty" validate:"omitempty,oneof=Y N"`
	VendorPaintCost  *int      `json:"vendorPaintCost,omitempty" validate:"omitempty,gte=0"`
	VendorStatorCost *int      `json:"vendorStatorCost,omitempty" validate:"omitempty,gte=0"`
	VendorLegCost    *int      `json:"vendorLegCost,omitempty" validate:"omitempty,gte=0"`
	VendorCost       *float64  `json:"vendorCost,omitempty" validate:"omitempty,gte=0"`
}

type VendorReturnBatchRequest struct {
	Items []VendorReturnItem `json:"items" validate:"required,min=1,dive"`
}

type VendorSettlementItem struct {
	SRFNumber            string    `json:"srfNumber" validate:"required"`
	VendorSettlementDate time.Time `json:"vendorSettlementDate" validate:"required"`
	VendorBillNumber     *string   `json:"vendorBillNumber,omitempty" validate:"omitempty,max=8"`
}

type VendorSettlementBatchRequest struct {
	Items []VendorSettlementItem `json:"items" validate:"required,min=1,dive"`
}

type VendorFinalSettlementItem struct {
	SRFNumber     string `json:"srfNumber" validate:"required"`
	VendorSettled string `json:"vendorSettled" validate:"required,oneof=Y N"`
}

type VendorFinalSettlementBatchRequest struct {
	Items []VendorFinalSettlementItem `json:"items" validate:"required,min=1,dive"`
}

type ComplaintNumberUpdateRequest struct {
	SRFNumber       string `json:"srfNumber" validate:"required"`
	ComplaintNumber string `json:"complaintNumber" validate:"required,min=13,max=15"`
}

// BatchItemStatus is the per-item outcome of a batch operation.
type BatchItemStatus string

const (
	BatchItemApplied   BatchItemStatus = "applied"
	BatchItemUnchanged BatchItemStatus = "unchanged"
	BatchItemSkipped   BatchItemStatus = "skipped"
)

type BatchItemResult struct {
	SRFNumber string          `json:"srfNumber"`
	Status    BatchItemStatus `json:"status"`
	Reason    string          `json:"reason,omitempty"`
}

// BatchResult reports every item of a committed batch.
type BatchResult struct {
	Applied   int               `json:"applied"`
	Unchanged int               `json:"unchanged"`
	Skipped   int               `json:"skipped"`
	Items     []BatchItemResult `json:"items"`
}

// Add records one item outcome.
func (b *BatchResult) Add(srfNumber string, status BatchItemStatus, reason string) {
	switch status {
	case BatchItemApplied:
		b.Applied++
	case BatchItemUnchanged:
		b.Unchanged++
	case BatchItemSkipped:
		b.Skipped++
	}
	b.Items = append(b.Items, BatchItemResult{SRFNumber: srfNumber, Status: status, Reason: reason})
}

// ============================================================================
// Read projections
// ============================================================================

// LedgerRow is a record joined with its customer master, as listed in the
// pending, settlement and vendor views.
type LedgerRow struct {
	SRFNumber            string     `gorm:"column:srf_number" json:"srfNumber"`
	SRFDate              time.Time  `gorm:"column:srf_date" json:"srfDate"`
	Code                 string     `gorm:"column:code" json:"code"`
	Name                 string     `gorm:"column:name" json:"name"`
	City                 *string    `gorm:"column:city" json:"city,omitempty"`
	Contact1             *string    `gorm:"column:contact1" json:"contact1,omitempty"`
	Head                 string     `gorm:"column:head" json:"head"`
	Division             string     `gorm:"column:division" json:"division"`
	Model                string     `gorm:"column:model" json:"model"`
	SerialNumber         string     `gorm:"column:serial_number" json:"serialNumber"`
	Problem              string     `gorm:"column:problem" json:"problem"`
	RepairDate           *time.Time `gorm:"column:repair_date" json:"repairDate,omitempty"`
	ChallanNumber        *string    `gorm:"column:challan_number" json:"challanNumber,omitempty"`
	ChallanDate          *time.Time `gorm:"column:challan_date" json:"challanDate,omitempty"`
	Challan              string     `gorm:"column:challan" json:"challan"`
	ReceivedBy           *string    `gorm:"column:received_by" json:"receivedBy,omitempty"`
	VendorDate2          *time.Time `gorm:"column:vendor_date2" json:"vendorDate2,omitempty"`
	VendorCost           *float64   `gorm:"column:vendor_cost" json:"vendorCost,omitempty"`
	VendorBillNumber     *string    `gorm:"column:vendor_bill_number" json:"vendorBillNumber,omitempty"`
	VendorSettlementDate *time.Time `gorm:"column:vendor_settlement_date" json:"vendorSettlementDate,omitempty"`
	VendorSettled        string     `gorm:"column:vendor_settled" json:"vendorSettled"`
	FinalAmount          *float64   `gorm:"column:final_amount" json:"finalAmount,omitempty"`
	ReceiveAmount        *float64   `gorm:"column:receive_amount" json:"receiveAmount,omitempty"`
	DeliveryDate         *time.Time `gorm:"column:delivery_date" json:"deliveryDate,omitempty"`
	InvoiceNumber        *int       `gorm:"column:invoice_number" json:"invoiceNumber,omitempty"`
	SettlementDate       *time.Time `gorm:"column:settlement_date" json:"settlementDate,omitempty"`
	FinalSettled         string     `gorm:"column:final_settled" json:"finalSettled"`
	FinalStatus          string     `gorm:"column:final_status" json:"finalStatus"`
	Chargeable           string     `gorm:"column:chargeable" json:"chargeable"`
}

// SRFView is a fully resolved record with its customer.
type SRFView struct {
	Record      SRFRecord   `json:"record"`
	Customer    *Master     `json:"customer"`
	State       SRFState    `json:"state"`
	VendorState VendorState `json:"vendorState"`
}

// SRFFamily is every unit registered under one base number, as printed on one form.
type SRFFamily struct {
	Base     string      `json:"base"`
	Customer *Master     `json:"customer"`
	Records  []SRFRecord `json:"records"`
}

// ChallanView is the projection printed on a vendor challan.
type ChallanView struct {
	ChallanNumber string      `json:"challanNumber"`
	ChallanDate   *time.Time  `json:"challanDate,omitempty"`
	Items         []LedgerRow `json:"items"`
}

// EnquiryFilter narrows the enquiry listing. Y/N filters follow the stored flags;
// Delivered, Received and Repaired test for presence of the matching date.
type EnquiryFilter struct {
	FinalStatus   string     `json:"finalStatus,omitempty" validate:"omitempty,oneof=Y N"`
	FinalSettled  string     `json:"finalSettled,omitempty" validate:"omitempty,oneof=Y N"`
	VendorSettled string     `json:"vendorSettled,omitempty" validate:"omitempty,oneof=Y N"`
	Name          string     `json:"name,omitempty"`
	Division      string     `json:"division,omitempty"`
	SerialNumber  string     `json:"serialNumber,omitempty"`
	Head          string     `json:"head,omitempty" validate:"omitempty,oneof=REPAIR REPLACE"`
	Delivered     string     `json:"delivered,omitempty" validate:"omitempty,oneof=Y N"`
	Received      string     `json:"received,omitempty" validate:"omitempty,oneof=Y N"`
	Repaired      string     `json:"repaired,omitempty" validate:"omitempty,oneof=Y N"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
}

// CostDetails combines a model's rewinding charge with the vendor rate table.
type CostDetails struct {
	Model           string   `json:"model"`
	Division        string   `json:"division"`
	RewindingCharge *int     `json:"rewindingCharge,omitempty"`
	PaintCharge     *int     `json:"paintCharge,omitempty"`
	StatorCharge    *int     `json:"statorCharge,omitempty"`
	LegCharge       *int     `json:"legCharge,omitempty"`
	Frame           *string  `json:"frame,omitempty"`
	HPRating        *float64 `json:"hpRating,omitempty"`
}

// ============================================================================
// Reference data
// ============================================================================

type CreateMasterRequest struct {
	Name     string  `json:"name" validate:"required,max=60"`
	Address1 *string `json:"address1,omitempty" validate:"omitempty,max=60"`
	Address2 *string `json:"address2,omitempty" validate:"omitempty,max=60"`
	Address3 *string `json:"address3,omitempty" validate:"omitempty,max=60"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=30"`
	Pin      *string `json:"pin,omitempty" validate:"omitempty,len=6,numeric"`
	Contact1 *string `json:"contact1,omitempty" validate:"omitempty,max=15"`
	Contact2 *string `json:"contact2,omitempty" validate:"omitempty,max=15"`
	GST      *string `json:"gst,omitempty" validate:"omitempty,max=15"`
}

type CreateModelRequest struct {
	Model           string   `json:"model" validate:"required,max=30"`
	Division        string   `json:"division" validate:"required,max=15"`
	Frame           *string  `json:"frame,omitempty" validate:"omitempty,max=10"`
	WindingType     *string  `json:"windingType,omitempty" validate:"omitempty,max=15"`
	HPRating        *float64 `json:"hpRating,omitempty" validate:"omitempty,gt=0"`
	RewindingCharge *int     `json:"rewindingCharge,omitempty" validate:"omitempty,gte=0"`
}

type CreateRewindingRateRequest struct {
	Division        string   `json:"division" validate:"required,max=15"`
	Frame           *string  `json:"frame,omitempty" validate:"omitempty,max=10"`
	WindingType     *string  `json:"windingType,omitempty" validate:"omitempty,max=15"`
	HPRating        *float64 `json:"hpRating,omitempty" validate:"omitempty,gt=0"`
	RewindingCharge *int     `json:"rewindingCharge,omitempty" validate:"omitempty,gte=0"`
	PaintCharge     *int     `json:"paintCharge,omitempty" validate:"omitempty,gte=0"`
	StatorCharge    *int     `json:"statorCharge,omitempty" validate:"omitempty,gte=0"`
	LegCharge       *int     `json:"legCharge,omitempty" validate:"omitempty,gte=0"`
}

type CreateServiceCenterRequest struct {
	Name string  `json:"name" validate:"required,max=50"`
	City *string `json:"city,omitempty" validate:"omitempty,max=30"`
}

// ImportResult summarises a registry upload.
type ImportResult struct {
	Rows     int `json:"rows"`
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// NumberResponse wraps a single generated or looked-up code.
type NumberResponse struct {
	Number string `json:"number"`
}

// ListResponse wraps list payloads.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Total: len(items)}
}
