package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/IgesAI/AMautomation/internal/domain/model"
)

const (
	subjectPrefix = "[AM Inventory]"
	testSubject   = subjectPrefix + " Test Notification - Email System Working"
)

// アラートメールの件名
func alertSubject(it model.Item, t model.NotificationType) string {
	switch t {
	case model.NotificationLowStock:
		return fmt.Sprintf("%s LOW STOCK: %s (%s %s, min %s %s)",
			subjectPrefix, it.Name,
			it.CurrentQuantity.String(), it.UnitOfMeasure,
			it.MinimumQuantity.String(), it.UnitOfMeasure)
	case model.NotificationOutOfStock:
		return fmt.Sprintf("%s OUT OF STOCK: %s", subjectPrefix, it.Name)
	case model.NotificationExpiringSoon:
		return fmt.Sprintf("%s EXPIRING SOON: %s", subjectPrefix, it.Name)
	default:
		return fmt.Sprintf("%s Status Update: %s", subjectPrefix, it.Name)
	}
}

type badge struct {
	Text  string
	Color string
}

func badgeFor(t model.NotificationType) badge {
	switch t {
	case model.NotificationLowStock:
		return badge{Text: "LOW STOCK", Color: "#ffaa00"}
	case model.NotificationOutOfStock:
		return badge{Text: "OUT OF STOCK", Color: "#ff4444"}
	case model.NotificationExpiringSoon:
		return badge{Text: "EXPIRING SOON", Color: "#ff00ff"}
	default:
		return badge{Text: "STATUS UPDATE", Color: "#00e5ff"}
	}
}

type txLine struct {
	Type     string
	Change   string
	Unit     string
	Machine  string
	Job      string
	Operator string
	At       string
}

type alertView struct {
	Badge        badge
	Name         string
	SKU          string
	Category     string
	Location     string
	Supplier     string
	Current      string
	Minimum      string
	Reorder      string
	Unit         string
	Expiration   string
	Transactions []txLine
	AppURL       string
}

var alertTmpl = template.Must(template.New("alert").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: monospace; background-color: #000011; color: #ffffff; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; border: 1px solid #00cccc; border-radius: 4px; padding: 20px;">
    <div style="text-align: center; border-bottom: 1px solid #00e5ff; padding-bottom: 10px; margin-bottom: 20px;">
      <h1 style="color: #00e5ff; margin: 0; font-size: 24px;">AM INVENTORY ALERT</h1>
      <div style="display: inline-block; padding: 5px 10px; border: 1px solid {{.Badge.Color}}; color: {{.Badge.Color}}; font-weight: bold;">{{.Badge.Text}}</div>
    </div>
    <div style="border: 1px solid #00cccc; padding: 15px; margin: 15px 0;">
      <h2 style="margin: 0 0 10px 0; font-size: 18px;">{{.Name}}</h2>
      {{if .SKU}}<div><b>SKU:</b> {{.SKU}}</div>{{end}}
      <div><b>Category:</b> {{.Category}}</div>
      <div><b>Current Quantity:</b> {{.Current}} {{.Unit}}</div>
      <div><b>Minimum Quantity:</b> {{.Minimum}} {{.Unit}}</div>
      <div><b>Suggested Reorder:</b> {{.Reorder}} {{.Unit}}</div>
      {{if .Expiration}}<div><b>Expiration:</b> {{.Expiration}}</div>{{end}}
      {{if .Location}}<div><b>Location:</b> {{.Location}}</div>{{end}}
      {{if .Supplier}}<div><b>Supplier:</b> {{.Supplier}}</div>{{end}}
    </div>
    {{if .Transactions}}
    <div style="margin-top: 20px;">
      <h3 style="color: #00e5ff; font-size: 14px;">RECENT ACTIVITY</h3>
      {{range .Transactions}}
      <div style="border: 1px solid #004444; padding: 8px; margin: 5px 0; font-size: 12px;">
        <strong>{{.Type}}</strong> {{.Change}} {{.Unit}}{{if .Machine}} &bull; {{.Machine}}{{end}}{{if .Job}} &bull; Job: {{.Job}}{{end}}{{if .Operator}} &bull; {{.Operator}}{{end}}
        <br><small style="color: #888888;">{{.At}}</small>
      </div>
      {{end}}
    </div>
    {{end}}
    <div style="text-align: center; margin: 20px 0;">
      <a href="{{.AppURL}}/items" style="color: #00e5ff;">VIEW INVENTORY SYSTEM</a>
      &nbsp;
      <a href="{{.AppURL}}/admin" style="color: #00e5ff;">ACCESS ADMIN PANEL</a>
    </div>
    <div style="text-align: center; margin-top: 20px; border-top: 1px solid #00cccc; color: #888888; font-size: 11px;">
      This notification was generated by the AM Consumables Inventory System<br>
      Please take appropriate action to maintain inventory levels.
    </div>
  </div>
</body>
</html>
`))

var testTmpl = template.Must(template.New("test").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: monospace; background-color: #0a0a0a; color: #ffffff; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; border: 1px solid #0099dd; border-radius: 8px; padding: 20px;">
    <h1 style="color: #0099dd; text-align: center;">AM INVENTORY SYSTEM</h1>
    <div style="color: #00ff00; font-size: 18px; text-align: center; margin: 20px 0;">&#10003; EMAIL TEST SUCCESSFUL</div>
    <div style="color: #cccccc; font-size: 14px; text-align: center;">
      <p>This is a test email from your AM Consumables Inventory System.</p>
      <p>If you're receiving this, your email notifications are configured correctly!</p>
    </div>
    <div style="text-align: center; margin-top: 20px; color: #666666; font-size: 12px;">
      Sent from: {{.From}}<br>
      Time: {{.At}}
    </div>
  </div>
</body>
</html>
`))

// renderAlert は件名とHTML本文を作る
func renderAlert(it model.Item, t model.NotificationType, txs []model.InventoryTransaction, appURL string) (string, string, error) {
	v := alertView{
		Badge:    badgeFor(t),
		Name:     it.Name,
		Category: it.CategoryName(),
		Location: it.LocationName(),
		Supplier: it.SupplierName(),
		Current:  it.CurrentQuantity.String(),
		Minimum:  it.MinimumQuantity.String(),
		Reorder:  it.ReorderQuantity.String(),
		Unit:     it.UnitOfMeasure,
		AppURL:   appURL,
	}
	if it.SKU != nil {
		v.SKU = *it.SKU
	}
	if it.ExpirationDate != nil {
		v.Expiration = it.ExpirationDate.UTC().Format("2006-01-02")
	}
	for _, tx := range txs {
		change := tx.QuantityChange.String()
		if tx.QuantityChange.IsPositive() {
			change = "+" + change
		}
		v.Transactions = append(v.Transactions, txLine{
			Type:     string(tx.Type),
			Change:   change,
			Unit:     it.UnitOfMeasure,
			Machine:  deref(tx.MachineOrArea),
			Job:      deref(tx.JobReference),
			Operator: deref(tx.PerformedBy),
			At:       tx.CreatedAt.Format(time.RFC1123),
		})
	}

	var buf bytes.Buffer
	if err := alertTmpl.Execute(&buf, v); err != nil {
		return "", "", err
	}
	return alertSubject(it, t), buf.String(), nil
}

func renderTest(from string, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := testTmpl.Execute(&buf, struct {
		From string
		At   string
	}{From: from, At: now.UTC().Format(time.RFC3339)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
