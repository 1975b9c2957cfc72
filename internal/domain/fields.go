package domain

import (
	"reflect"
	"strings"
	"time"
)

// FieldDiscount is the only update field restricted by role today.
const FieldDiscount = "discount"

// restrictedFields maps an update field to the roles allowed to change it.
// Fields not listed here are open to every authenticated role.
var restrictedFields = map[string][]UserRole{
	FieldDiscount: {RoleAdmin},
}

// FieldPermitted reports whether role may change field.
func FieldPermitted(role UserRole, field string) bool {
	roles, restricted := restrictedFields[field]
	if !restricted {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// UpdatableFields returns the whitelist of update fields for role, derived from
// the fields of the given update request type.
func UpdatableFields(role UserRole, req any) map[string]bool {
	out := make(map[string]bool)
	walkFields(reflect.TypeOf(req), func(name string) {
		if FieldPermitted(role, name) {
			out[name] = true
		}
	})
	return out
}

// SetFields lists the JSON names of the non-nil pointer fields of an update
// request, descending into embedded structs.
func SetFields(req any) []string {
	v := reflect.ValueOf(req)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	var out []string
	collectSet(v, &out)
	return out
}

func collectSet(v reflect.Value, out *[]string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectSet(fv, out)
			continue
		}
		if fv.Kind() == reflect.Pointer && !fv.IsNil() {
			*out = append(*out, jsonName(f))
		}
	}
}

func walkFields(t reflect.Type, fn func(string)) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			walkFields(f.Type, fn)
			continue
		}
		fn(jsonName(f))
	}
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// ApplyUpdate copies every set field of req onto rec. Lifecycle guards are the
// caller's responsibility; ApplyUpdate only moves values.
func ApplyUpdate(rec SRFRecord, req *SRFUpdateRequest) {
	id := rec.Identity()
	set(&id.Division, req.Division)
	set(&id.Model, req.Model)
	set(&id.SerialNumber, req.SerialNumber)
	set(&id.Problem, req.Problem)
	assign(&id.Remark, req.Remark)

	details := customerDetails(rec)
	if details != nil {
		assign(&details.DealerName, req.DealerName)
		assign(&details.RPM, req.RPM)
		assign(&details.PurchaseNumber, req.PurchaseNumber)
		assign(&details.PurchaseDate, req.PurchaseDate)
		assign(&details.CustomerChallanNumber, req.CustomerChallanNumber)
		assign(&details.CustomerChallanDate, req.CustomerChallanDate)
		assign(&details.ReceiveDate, req.ReceiveDate)
		assign(&details.WorkDone, req.WorkDone)
	}

	c := rec.Costs()
	assign(&c.RepairDate, req.RepairDate)
	set(&c.RewindingDone, req.RewindingDone)
	assign(&c.RewindingCost, req.RewindingCost)
	assign(&c.PaintCost, req.PaintCost)
	assign(&c.StatorCost, req.StatorCost)
	assign(&c.LegCost, req.LegCost)
	assign(&c.Spare1, req.Spare1)
	assign(&c.Cost1, req.Cost1)
	assign(&c.Spare2, req.Spare2)
	assign(&c.Cost2, req.Cost2)
	assign(&c.Spare3, req.Spare3)
	assign(&c.Cost3, req.Cost3)
	assign(&c.Spare4, req.Spare4)
	assign(&c.Cost4, req.Cost4)
	assign(&c.Spare5, req.Spare5)
	assign(&c.Cost5, req.Cost5)
	assign(&c.Spare6, req.Spare6)
	assign(&c.Cost6, req.Cost6)
	assign(&c.SpareCost, req.SpareCost)
	assign(&c.GodownCost, req.GodownCost)
	assign(&c.OtherCost, req.OtherCost)
	assign(&c.Discount, req.Discount)
	assign(&c.Total, req.Total)
	set(&c.GST, req.GST)
	assign(&c.GSTAmount, req.GSTAmount)
	assign(&c.FinalAmount, req.FinalAmount)
	assign(&c.RoundOff, req.RoundOff)

	v := rec.Vendor()
	assign(&v.VendorCost1, req.VendorCost1)
	assign(&v.VendorCost2, req.VendorCost2)
	set(&v.VendorPaint, req.VendorPaint)
	set(&v.VendorStator, req.VendorStator)
	set(&v.VendorLeg, req.VendorLeg)
	assign(&v.VendorPaintCost, req.VendorPaintCost)
	assign(&v.VendorStatorCost, req.VendorStatorCost)
	assign(&v.VendorLegCost, req.VendorLegCost)
	assign(&v.VendorCost, req.VendorCost)

	s := rec.Settlement()
	assign(&s.ReceiveAmount, req.ReceiveAmount)
	assign(&s.DeliveryDate, req.DeliveryDate)
	assign(&s.DeliveredBy, req.DeliveredBy)
	assign(&s.PCNumber, req.PCNumber)
	assign(&s.InvoiceNumber, req.InvoiceNumber)
	assign(&s.InvoiceDate, req.InvoiceDate)
	set(&s.FinalStatus, req.FinalStatus)
	set(&s.Chargeable, req.Chargeable)
}

// ApplyWarrantyUpdate applies the warranty-only fields.
func ApplyWarrantyUpdate(w *Warranty, req *WarrantyUpdateRequest) {
	ApplyUpdate(w, &req.SRFUpdateRequest)
	assign(&w.ComplaintNumber, req.ComplaintNumber)
	assign(&w.CGSRFNumber, req.CGSRFNumber)
	assign(&w.StickerNumber, req.StickerNumber)
	assign(&w.ASCName, req.ASCName)
}

// ApplyOutOfWarrantyUpdate applies the out-of-warranty-only fields.
func ApplyOutOfWarrantyUpdate(o *OutOfWarranty, req *OutOfWarrantyUpdateRequest) {
	ApplyUpdate(o, &req.SRFUpdateRequest)
	set(&o.ServiceCharge, req.ServiceCharge)
	set(&o.ServiceChargeWaive, req.ServiceChargeWaive)
	assign(&o.WaiveDetails, req.WaiveDetails)
	assign(&o.CustomerInvoiceNumber, req.CustomerInvoiceNumber)
	assign(&o.EstimateDate, req.EstimateDate)
	assign(&o.CollectionDate, req.CollectionDate)
}

func customerDetails(rec SRFRecord) *CustomerDetails {
	switch r := rec.(type) {
	case *Warranty:
		return &r.CustomerDetails
	case *OutOfWarranty:
		return &r.CustomerDetails
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// CloneRecord returns a shallow copy of rec. Update helpers replace pointers
// rather than writing through them, so the copy is a stable snapshot.
func CloneRecord(rec SRFRecord) SRFRecord {
	switch r := rec.(type) {
	case *Warranty:
		c := *r
		return &c
	case *OutOfWarranty:
		c := *r
		return &c
	}
	return nil
}

// CustomerSideChanged reports whether anything outside the vendor track and the
// audit stamp differs between two snapshots of one record.
func CustomerSideChanged(before, after SRFRecord) bool {
	return !SameValues(customerSide(before), customerSide(after))
}

// VendorSideChanged reports whether the vendor track differs.
func VendorSideChanged(before, after SRFRecord) bool {
	return !SameValues(*before.Vendor(), *after.Vendor())
}

func customerSide(rec SRFRecord) SRFRecord {
	c := CloneRecord(rec)
	*c.Vendor() = VendorTrack{}
	*c.Audit() = AuditStamp{}
	return c
}

var timeType = reflect.TypeOf(time.Time{})

// SameValues compares two values of one type field by field. Pointers compare
// by target and times by instant.
func SameValues(a, b any) bool {
	return sameValue(reflect.ValueOf(a), reflect.ValueOf(b))
}

func sameValue(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	if a.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}
	switch a.Kind() {
	case reflect.Pointer, reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return sameValue(a.Elem(), b.Elem())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !sameValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	default:
		return a.Interface() == b.Interface()
	}
}
