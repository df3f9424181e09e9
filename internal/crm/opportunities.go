package crm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const opportunitySObject = "Opportunity"

// Qualifier fields read by the scoring formula.
var QualifierFields = []string{
	"icp_fit__c",
	"Engagement_Score__c",
	"Intent_Data__c",
	"Past_Success__c",
	"Total_Sales_Touches__c",
	"Number_of_Meetings__c",
	"Contacts_Associated__c",
	"Budget_Defined__c",
	"Need_Defined__c",
	"Timeline_Defined__c",
	"Short_List_Defined__c",
	"High_Intent__c",
}

// Stored score fields written back by the updater.
const (
	FieldPropensityScore = "Propensity_Score__c"
	FieldWinProbability  = "Win_Probability__c"
	FieldPriorityLevel   = "Priority_Level__c"
	FieldLastEmailSent   = "Last_Email_Sent__c"
)

var baseFields = []string{"Id", "Name", "Amount", "StageName", "CloseDate", "LastModifiedDate", "Account.Name"}

var storedScoreFields = []string{FieldPropensityScore, FieldWinProbability, FieldPriorityLevel}

func scoringSelect() string {
	fields := make([]string, 0, len(baseFields)+len(QualifierFields)+len(storedScoreFields))
	fields = append(fields, baseFields...)
	fields = append(fields, QualifierFields...)
	fields = append(fields, storedScoreFields...)
	return strings.Join(fields, ", ")
}

// GetOpportunity fetches one opportunity with its qualifier and stored score
// fields. Returns nil, nil when no record has that ID.
func (c *Client) GetOpportunity(ctx context.Context, id string) (Record, error) {
	soql := fmt.Sprintf("SELECT %s FROM Opportunity WHERE Id = %s LIMIT 1", scoringSelect(), quote(id))
	records, err := c.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// RecentlyModifiedIDs returns the IDs of opportunities modified today, or
// since the given instant when since is non-zero.
func (c *Client) RecentlyModifiedIDs(ctx context.Context, since time.Time) ([]string, error) {
	filter := "LastModifiedDate = TODAY"
	if !since.IsZero() {
		filter = "LastModifiedDate >= " + since.UTC().Format("2006-01-02T15:04:05Z")
	}
	records, err := c.Query(ctx, "SELECT Id FROM Opportunity WHERE "+filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, record := range records {
		if id := record.ID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// InactiveOpportunities returns Prospecting opportunities with no activity
// since the cutoff date (or none at all), including their contact roles.
func (c *Client) InactiveOpportunities(ctx context.Context, cutoff time.Time) ([]Record, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Name, Amount, StageName, LastActivityDate, Account.Name, "+
			"(SELECT Contact.Name, Contact.Email FROM OpportunityContactRoles) "+
			"FROM Opportunity WHERE StageName = 'Prospecting' "+
			"AND (LastActivityDate < %s OR LastActivityDate = null)",
		cutoff.UTC().Format("2006-01-02"),
	)
	return c.Query(ctx, soql)
}

// DashboardOpportunities returns every opportunity with the fields needed to
// score and display it, newest close date first.
func (c *Client) DashboardOpportunities(ctx context.Context) ([]Record, error) {
	soql := fmt.Sprintf("SELECT %s FROM Opportunity ORDER BY CloseDate DESC NULLS LAST", scoringSelect())
	return c.Query(ctx, soql)
}

// UpdateOpportunity patches fields on an opportunity.
func (c *Client) UpdateOpportunity(ctx context.Context, id string, fields map[string]any) error {
	return c.Update(ctx, opportunitySObject, id, fields)
}

// quote renders a SOQL string literal.
func quote(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(s) + "'"
}
