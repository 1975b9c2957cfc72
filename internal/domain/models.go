package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Y/N flags as stored in the flag columns.
const (
	FlagYes = "Y"
	FlagNo  = "N"
)

// Head values on intake.
const (
	HeadRepair  = "REPAIR"
	HeadReplace = "REPLACE"
)

// Divisions whose models must be registered before intake.
const (
	DivisionPump     = "PUMP"
	DivisionLTMotor  = "LT MOTOR"
	DivisionFHPMotor = "FHP MOTOR"
)

// RequiresRegisteredModel reports whether intake for division needs a known model.
func RequiresRegisteredModel(division string) bool {
	switch division {
	case DivisionPump, DivisionLTMotor, DivisionFHPMotor:
		return true
	}
	return false
}

// SRFIdentity holds identity and intake fields shared by both SRF variants.
type SRFIdentity struct {
	SRFNumber    string    `gorm:"column:srf_number;type:varchar(10);primaryKey" json:"srfNumber"`
	Code         string    `gorm:"column:code;type:varchar(5);not null;index" json:"code"`
	SRFDate      time.Time `gorm:"column:srf_date;type:date;not null" json:"srfDate"`
	Head         string    `gorm:"column:head;type:varchar(15);not null" json:"head"`
	Division     string    `gorm:"column:division;type:varchar(15);not null" json:"division"`
	Model        string    `gorm:"column:model;type:varchar(30);not null" json:"model"`
	SerialNumber string    `gorm:"column:serial_number;type:varchar(20);not null" json:"serialNumber"`
	Problem      string    `gorm:"column:problem;type:varchar(30);not null" json:"problem"`
	Remark       *string   `gorm:"column:remark;type:varchar(40)" json:"remark,omitempty"`
}

// CustomerDetails are the intake fields describing the customer's paperwork.
type CustomerDetails struct {
	DealerName            *string    `gorm:"column:dealer_name;type:varchar(30)" json:"dealerName,omitempty"`
	RPM                   *int       `gorm:"column:rpm" json:"rpm,omitempty"`
	PurchaseNumber        *string    `gorm:"column:purchase_number;type:varchar(15)" json:"purchaseNumber,omitempty"`
	PurchaseDate          *time.Time `gorm:"column:purchase_date;type:date" json:"purchaseDate,omitempty"`
	CustomerChallanNumber *string    `gorm:"column:customer_challan_number;type:varchar(6)" json:"customerChallanNumber,omitempty"`
	CustomerChallanDate   *time.Time `gorm:"column:customer_challan_date;type:date" json:"customerChallanDate,omitempty"`
	ReceiveDate           *time.Time `gorm:"column:receive_date;type:date" json:"receiveDate,omitempty"`
	WorkDone              *string    `gorm:"column:work_done;type:varchar(50)" json:"workDone,omitempty"`
}

// VendorTrack holds the vendor sub-contract fields.
type VendorTrack struct {
	ChallanNumber        *string    `gorm:"column:challan_number;type:varchar(15);index" json:"challanNumber,omitempty"`
	ChallanDate          *time.Time `gorm:"column:challan_date;type:date" json:"challanDate,omitempty"`
	Challan              string     `gorm:"column:challan;type:varchar(1);not null;default:'N'" json:"challan"`
	ReceivedBy           *string    `gorm:"column:received_by;type:varchar(30)" json:"receivedBy,omitempty"`
	VendorDate2          *time.Time `gorm:"column:vendor_date2;type:date" json:"vendorDate2,omitempty"`
	VendorCost1          *float64   `gorm:"column:vendor_cost1" json:"vendorCost1,omitempty"`
	VendorCost2          *float64   `gorm:"column:vendor_cost2" json:"vendorCost2,omitempty"`
	VendorPaint          string     `gorm:"column:vendor_paint;type:varchar(1);not null;default:'N'" json:"vendorPaint"`
	VendorStator         string     `gorm:"column:vendor_stator;type:varchar(1);not null;default:'N'" json:"vendorStator"`
	VendorLeg            string     `gorm:"column:vendor_leg;type:varchar(1);not null;default:'N'" json:"vendorLeg"`
	VendorPaintCost      *int       `gorm:"column:vendor_paint_cost" json:"vendorPaintCost,omitempty"`
	VendorStatorCost     *int       `gorm:"column:vendor_stator_cost" json:"vendorStatorCost,omitempty"`
	VendorLegCost        *int       `gorm:"column:vendor_leg_cost" json:"vendorLegCost,omitempty"`
	VendorCost           *float64   `gorm:"column:vendor_cost" json:"vendorCost,omitempty"`
	VendorBillNumber     *string    `gorm:"column:vendor_bill_number;type:varchar(8)" json:"vendorBillNumber,omitempty"`
	VendorSettlementDate *time.Time `gorm:"column:vendor_settlement_date;type:date" json:"vendorSettlementDate,omitempty"`
	VendorSettled        string     `gorm:"column:vendor_settled;type:varchar(1);not null;default:'N'" json:"vendorSettled"`
}

// Costing holds repair and billing amounts.
type Costing struct {
	RepairDate    *time.Time `gorm:"column:repair_date;type:date" json:"repairDate,omitempty"`
	RewindingDone string     `gorm:"column:rewinding_done;type:varchar(1);not null;default:'N'" json:"rewindingDone"`
	RewindingCost *float64   `gorm:"column:rewinding_cost" json:"rewindingCost,omitempty"`
	PaintCost     *int       `gorm:"column:paint_cost" json:"paintCost,omitempty"`
	StatorCost    *int       `gorm:"column:stator_cost" json:"statorCost,omitempty"`
	LegCost       *int       `gorm:"column:leg_cost" json:"legCost,omitempty"`
	Spare1        *string    `gorm:"column:spare1;type:varchar(20)" json:"spare1,omitempty"`
	Cost1         *float64   `gorm:"column:cost1" json:"cost1,omitempty"`
	Spare2        *string    `gorm:"column:spare2;type:varchar(20)" json:"spare2,omitempty"`
	Cost2         *float64   `gorm:"column:cost2" json:"cost2,omitempty"`
	Spare3        *string    `gorm:"column:spare3;type:varchar(20)" json:"spare3,omitempty"`
	Cost3         *float64   `gorm:"column:cost3" json:"cost3,omitempty"`
	Spare4        *string    `gorm:"column:spare4;type:varchar(20)" json:"spare4,omitempty"`
	Cost4         *float64   `gorm:"column:cost4" json:"cost4,omitempty"`
	Spare5        *string    `gorm:"column:spare5;type:varchar(20)" json:"spare5,omitempty"`
	Cost5         *float64   `gorm:"column:cost5" json:"cost5,omitempty"`
	Spare6        *string    `gorm:"column:spare6;type:varchar(20)" json:"spare6,omitempty"`
	Cost6         *float64   `gorm:"column:cost6" json:"cost6,omitempty"`
	SpareCost     *float64   `gorm:"column:spare_cost" json:"spareCost,omitempty"`
	GodownCost    *float64   `gorm:"column:godown_cost" json:"godownCost,omitempty"`
	OtherCost     *float64   `gorm:"column:other_cost" json:"otherCost,omitempty"`
	Discount      *float64   `gorm:"column:discount" json:"discount,omitempty"`
	Total         *float64   `gorm:"column:total" json:"total,omitempty"`
	GST           string     `gorm:"column:gst;type:varchar(1);not null;default:'N'" json:"gst"`
	GSTAmount     *float64   `gorm:"column:gst_amount" json:"gstAmount,omitempty"`
	FinalAmount   *float64   `gorm:"column:final_amount" json:"finalAmount,omitempty"`
	RoundOff      *float64   `gorm:"column:round_off" json:"roundOff,omitempty"`
}

// SettlementTrack holds delivery and customer-facing settlement fields.
type SettlementTrack struct {
	ReceiveAmount  *float64   `gorm:"column:receive_amount" json:"receiveAmount,omitempty"`
	DeliveryDate   *time.Time `gorm:"column:delivery_date;type:date" json:"deliveryDate,omitempty"`
	DeliveredBy    *string    `gorm:"column:delivered_by;type:varchar(20)" json:"deliveredBy,omitempty"`
	PCNumber       *int       `gorm:"column:pc_number" json:"pcNumber,omitempty"`
	InvoiceNumber  *int       `gorm:"column:invoice_number" json:"invoiceNumber,omitempty"`
	InvoiceDate    *time.Time `gorm:"column:invoice_date;type:date" json:"invoiceDate,omitempty"`
	SettlementDate *time.Time `gorm:"column:settlement_date;type:date" json:"settlementDate,omitempty"`
	FinalSettled   string     `gorm:"column:final_settled;type:varchar(1);not null;default:'N'" json:"finalSettled"`
	FinalStatus    string     `gorm:"column:final_status;type:varchar(1);not null;default:'N';index" json:"finalStatus"`
	Chargeable     string     `gorm:"column:chargeable;type:varchar(1);not null;default:'N'" json:"chargeable"`
}

// AuditStamp records who created and last touched a record.
type AuditStamp struct {
	CreatedBy string    `gorm:"column:created_by;type:varchar(30);not null" json:"createdBy"`
	UpdatedBy *string   `gorm:"column:updated_by;type:varchar(30)" json:"updatedBy,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// SRFRecord is the capability set shared by Warranty and OutOfWarranty.
type SRFRecord interface {
	Kind() SRFKind
	Identity() *SRFIdentity
	Vendor() *VendorTrack
	Costs() *Costing
	Settlement() *SettlementTrack
	Audit() *AuditStamp
}

// Warranty is an in-warranty repair ticket (R prefix).
type Warranty struct {
	SRFIdentity
	CustomerDetails
	VendorTrack
	Costing
	SettlementTrack
	AuditStamp

	ComplaintNumber *string `gorm:"column:complaint_number;type:varchar(20);index" json:"complaintNumber,omitempty"`
	CGSRFNumber     *int64  `gorm:"column:cg_srf_number;index" json:"cgSrfNumber,omitempty"`
	StickerNumber   *string `gorm:"column:sticker_number;type:varchar(20)" json:"stickerNumber,omitempty"`
	ASCName         *string `gorm:"column:asc_name;type:varchar(50)" json:"ascName,omitempty"`
}

func (Warranty) TableName() string { return KindWarranty.TableName() }

func (w *Warranty) Kind() SRFKind                { return KindWarranty }
func (w *Warranty) Identity() *SRFIdentity       { return &w.SRFIdentity }
func (w *Warranty) Vendor() *VendorTrack         { return &w.VendorTrack }
func (w *Warranty) Costs() *Costing              { return &w.Costing }
func (w *Warranty) Settlement() *SettlementTrack { return &w.SettlementTrack }
func (w *Warranty) Audit() *AuditStamp           { return &w.AuditStamp }

// OutOfWarranty is a chargeable repair ticket (S prefix).
type OutOfWarranty struct {
	SRFIdentity
	CustomerDetails
	VendorTrack
	Costing
	SettlementTrack
	AuditStamp

	ServiceCharge         float64    `gorm:"column:service_charge;not null;default:0" json:"serviceCharge"`
	ServiceChargeWaive    string     `gorm:"column:service_charge_waive;type:varchar(1);not null;default:'N'" json:"serviceChargeWaive"`
	WaiveDetails          *string    `gorm:"column:waive_details;type:varchar(40)" json:"waiveDetails,omitempty"`
	CustomerInvoiceNumber *string    `gorm:"column:customer_invoice_number;type:varchar(16)" json:"customerInvoiceNumber,omitempty"`
	EstimateDate          *time.Time `gorm:"column:estimate_date;type:date" json:"estimateDate,omitempty"`
	CollectionDate        *time.Time `gorm:"column:collection_date;type:date" json:"collectionDate,omitempty"`
}

func (OutOfWarranty) TableName() string { return KindOutOfWarranty.TableName() }

func (o *OutOfWarranty) Kind() SRFKind                { return KindOutOfWarranty }
func (o *OutOfWarranty) Identity() *SRFIdentity       { return &o.SRFIdentity }
func (o *OutOfWarranty) Vendor() *VendorTrack         { return &o.VendorTrack }
func (o *OutOfWarranty) Costs() *Costing              { return &o.Costing }
func (o *OutOfWarranty) Settlement() *SettlementTrack { return &o.SettlementTrack }
func (o *OutOfWarranty) Audit() *AuditStamp           { return &o.AuditStamp }

// NewRecord returns an empty record of the given kind, usable as a gorm model.
func NewRecord(kind SRFKind) SRFRecord {
	if kind == KindOutOfWarranty {
		return &OutOfWarranty{}
	}
	return &Warranty{}
}

// Master is the customer master keyed by a short code.
type Master struct {
	Code      string    `gorm:"column:code;type:varchar(5);primaryKey" json:"code"`
	Name      string    `gorm:"column:name;type:varchar(60);not null;uniqueIndex" json:"name"`
	Address1  *string   `gorm:"column:address1;type:varchar(60)" json:"address1,omitempty"`
	Address2  *string   `gorm:"column:address2;type:varchar(60)" json:"address2,omitempty"`
	Address3  *string   `gorm:"column:address3;type:varchar(60)" json:"address3,omitempty"`
	City      *string   `gorm:"column:city;type:varchar(30)" json:"city,omitempty"`
	Pin       *string   `gorm:"column:pin;type:varchar(6)" json:"pin,omitempty"`
	Contact1  *string   `gorm:"column:contact1;type:varchar(15)" json:"contact1,omitempty"`
	Contact2  *string   `gorm:"column:contact2;type:varchar(15)" json:"contact2,omitempty"`
	GST       *string   `gorm:"column:gst;type:varchar(15)" json:"gst,omitempty"`
	CreatedBy string    `gorm:"column:created_by;type:varchar(30);not null" json:"createdBy"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (Master) TableName() string { return "master" }

// Model is a registered product model.
type Model struct {
	Model           string   `gorm:"column:model;type:varchar(30);primaryKey" json:"model"`
	Division        string   `gorm:"column:division;type:varchar(15);not null;index" json:"division"`
	Frame           *string  `gorm:"column:frame;type:varchar(10)" json:"frame,omitempty"`
	WindingType     *string  `gorm:"column:winding_type;type:varchar(15)" json:"windingType,omitempty"`
	HPRating        *float64 `gorm:"column:hp_rating" json:"hpRating,omitempty"`
	RewindingCharge *int     `gorm:"column:rewinding_charge" json:"rewindingCharge,omitempty"`
	CreatedBy       string   `gorm:"column:created_by;type:varchar(30);not null" json:"createdBy"`
}

func (Model) TableName() string { return "model" }

// RewindingRate holds vendor charges per division and frame or rating.
type RewindingRate struct {
	ID              uint     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Division        string   `gorm:"column:division;type:varchar(15);not null;index" json:"division"`
	Frame           *string  `gorm:"column:frame;type:varchar(10)" json:"frame,omitempty"`
	WindingType     *string  `gorm:"column:winding_type;type:varchar(15)" json:"windingType,omitempty"`
	HPRating        *float64 `gorm:"column:hp_rating" json:"hpRating,omitempty"`
	RewindingCharge *int     `gorm:"column:rewinding_charge" json:"rewindingCharge,omitempty"`
	PaintCharge     *int     `gorm:"column:paint_charge" json:"paintCharge,omitempty"`
	StatorCharge    *int     `gorm:"column:stator_charge" json:"statorCharge,omitempty"`
	LegCharge       *int     `gorm:"column:leg_charge" json:"legCharge,omitempty"`
	CreatedBy       string   `gorm:"column:created_by;type:varchar(30);not null" json:"createdBy"`
}

func (RewindingRate) TableName() string { return "rewinding_rate" }

// ServiceCenter is an authorised service center used for replacements.
type ServiceCenter struct {
	Name      string    `gorm:"column:name;type:varchar(50);primaryKey" json:"name"`
	City      *string   `gorm:"column:city;type:varchar(30)" json:"city,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (ServiceCenter) TableName() string { return "service_center" }

// Complaint number status values.
const (
	ComplaintStatusOK    = "OK"
	ComplaintStatusFalse = "FALSE"
)

// ComplaintNumber is a complaint number issued by the principal.
type ComplaintNumber struct {
	ComplaintNumber string  `gorm:"column:complaint_number;type:varchar(15);primaryKey" json:"complaintNumber"`
	Status          string  `gorm:"column:status;type:varchar(15)" json:"status"`
	Remark          *string `gorm:"column:remark;type:varchar(30)" json:"remark,omitempty"`
}

func (ComplaintNumber) TableName() string { return "complaint_number" }

// CGSRFNumber is an externally issued cross-reference number.
type CGSRFNumber struct {
	CGSRFNumber int64 `gorm:"column:cg_srf_number;primaryKey;autoIncrement:false" json:"cgSrfNumber"`
}

func (CGSRFNumber) TableName() string { return "cg_srf_number" }

// UserRole is the role carried by an authenticated identity.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is an operator identity referenced by created_by/updated_by.
type User struct {
	Username    string     `gorm:"column:username;type:varchar(30);primaryKey" json:"username"`
	DisplayName string     `gorm:"column:display_name;type:varchar(100)" json:"displayName"`
	Role        UserRole   `gorm:"column:role;type:varchar(10);not null" json:"role"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"createdAt"`
}

func (User) TableName() string { return "users" }

// AuditLog records a successful mutating request.
type AuditLog struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"column:username;type:varchar(30)" json:"username"`
	Method      string    `gorm:"column:method;type:varchar(10);not null" json:"method"`
	Path        string    `gorm:"column:path;type:varchar(255);not null" json:"path"`
	EntityID    string    `gorm:"column:entity_id;type:varchar(30)" json:"entityId,omitempty"`
	StatusCode  int       `gorm:"column:status_code" json:"statusCode"`
	RequestID   string    `gorm:"column:request_id;type:varchar(100)" json:"requestId,omitempty"`
	IPAddress   string    `gorm:"column:ip_address;type:varchar(64)" json:"ipAddress,omitempty"`
	Body        string    `gorm:"column:body;type:text" json:"body,omitempty"`
	PerformedAt time.Time `gorm:"column:performed_at;not null" json:"performedAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// LedgerExport is a stored XLSX snapshot of the settlement ledgers.
type LedgerExport struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Filename    string    `gorm:"column:filename;type:varchar(255);not null" json:"filename"`
	StoragePath string    `gorm:"column:storage_path;type:varchar(500);not null" json:"storagePath"`
	Size        int64     `gorm:"column:size" json:"size"`
	Rows        int       `gorm:"column:rows" json:"rows"`
	CreatedBy   string    `gorm:"column:created_by;type:varchar(30);not null" json:"createdBy"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
}

func (LedgerExport) TableName() string { return "ledger_exports" }

func (e *LedgerExport) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
