package tickets

// View is a named set of bucket codes to query plus the raw statuses to admit.
// Only the listed pairs exist; there is no catch-all view.
type View struct {
	Name   string
	Codes  []string
	Accept []string
}

// Accepts reports whether raw is one of the view's admitted statuses.
func (v View) Accepts(raw string) bool {
	for _, a := range v.Accept {
		if a == raw {
			return true
		}
	}
	return false
}

// View names.
const (
	ViewNew         = "new"
	ViewOpen        = "open"
	ViewClosed      = "closed"
	ViewResolved    = "resolved"
	ViewMaintenance = "maintenance"
)

var views = []View{
	{Name: ViewNew, Codes: []string{"1", "New"}, Accept: []string{"1"}},
	{Name: ViewOpen, Codes: []string{"1", "2", "3", "New", "Open", "On Hold"}, Accept: []string{"1", "2", "3", "New", "Open", "On Hold"}},
	{Name: ViewClosed, Codes: []string{"5", "Closed"}, Accept: []string{"5"}},
	{Name: ViewResolved, Codes: []string{"4", "Resolved"}, Accept: []string{"4"}},
	{Name: ViewMaintenance, Codes: []string{"7", "Maintenance"}, Accept: []string{"7"}},
}

// Views returns the fixed views in display order.
func Views() []View {
	out := make([]View, len(views))
	copy(out, views)
	return out
}

// LookupView finds a view by name.
func LookupView(name string) (View, bool) {
	for _, v := range views {
		if v.Name == name {
			return v, true
		}
	}
	return View{}, false
}
