package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phbpx/minicrm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/phbpx/minicrm/mongo")

var _ minicrm.LeadStore = (*LeadStore)(nil)

type LeadStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewLeadStore(coll *mongo.Collection) *LeadStore {
	return &LeadStore{
		coll: coll,
		// BSON datetimes keep millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *LeadStore) ListAll(ctx context.Context) (_ []minicrm.Lead, err error) {
	ctx, span := s.start(ctx, "mongo.ListAll")
	defer func() { end(span, err) }()

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("finding leads: %w", err)
	}

	leads := []minicrm.Lead{}
	if err := cur.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("decoding leads: %w", err)
	}
	for i := range leads {
		normalize(&leads[i])
	}
	return leads, nil
}

func (s *LeadStore) GetByID(ctx context.Context, id string) (_ minicrm.Lead, err error) {
	ctx, span := s.start(ctx, "mongo.GetByID", attribute.String("lead.id", id))
	defer func() { end(span, err) }()

	var lead minicrm.Lead
	if err := s.coll.FindOne(ctx, byID(id)).Decode(&lead); err != nil {
		return minicrm.Lead{}, translate(err, "finding lead")
	}
	normalize(&lead)
	return lead, nil
}

func (s *LeadStore) Create(ctx context.Context, nl minicrm.NewLead) (_ minicrm.Lead, err error) {
	ctx, span := s.start(ctx, "mongo.Create")
	defer func() { end(span, err) }()

	if err := nl.Validate(); err != nil {
		return minicrm.Lead{}, err
	}

	lead := nl.Lead(uuid.NewString(), s.now())
	if _, err := s.coll.InsertOne(ctx, lead); err != nil {
		return minicrm.Lead{}, fmt.Errorf("inserting lead: %w", err)
	}
	return lead, nil
}

func (s *LeadStore) UpdateFields(ctx context.Context, id string, lu minicrm.LeadUpdate) (_ minicrm.Lead, err error) {
	ctx, span := s.start(ctx, "mongo.UpdateFields", attribute.String("lead.id", id))
	defer func() { end(span, err) }()

	if err := lu.Validate(); err != nil {
		return minicrm.Lead{}, err
	}
	if lu.Empty() {
		return s.GetByID(ctx, id)
	}

	set := bson.D{}
	if lu.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *lu.Name})
	}
	if lu.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *lu.Email})
	}
	if lu.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *lu.Phone})
	}
	if lu.Company != nil {
		set = append(set, bson.E{Key: "company", Value: *lu.Company})
	}
	if lu.AssignedTo != nil {
		set = append(set, bson.E{Key: "assignedTo", Value: *lu.AssignedTo})
	}
	if lu.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *lu.Status})
	}
	set = append(set, bson.E{Key: "modifiedAt", Value: s.now()})

	return s.findOneAndUpdate(ctx, id, bson.D{{Key: "$set", Value: set}})
}

func (s *LeadStore) AppendFollowUp(ctx context.Context, id string, in minicrm.FollowUpInput) (_ minicrm.Lead, err error) {
	ctx, span := s.start(ctx, "mongo.AppendFollowUp", attribute.String("lead.id", id))
	defer func() { end(span, err) }()

	fu := in.FollowUp(uuid.NewString())
	fu.Date = fu.Date.UTC().Truncate(time.Millisecond)

	return s.findOneAndUpdate(ctx, id, bson.D{
		{Key: "$push", Value: bson.D{{Key: "followUps", Value: fu}}},
		{Key: "$set", Value: bson.D{{Key: "modifiedAt", Value: s.now()}}},
	})
}

// CompleteFollowUp uses the positional operator so the flag is set by the
// server in one atomic document update.
func (s *LeadStore) CompleteFollowUp(ctx context.Context, leadID, followUpID string) (err error) {
	ctx, span := s.start(ctx, "mongo.CompleteFollowUp",
		attribute.String("lead.id", leadID),
		attribute.String("followup.id", followUpID),
	)
	defer func() { end(span, err) }()

	filter := bson.D{
		{Key: "_id", Value: leadID},
		{Key: "followUps.id", Value: followUpID},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "followUps.$.isCompleted", Value: true},
		{Key: "modifiedAt", Value: s.now()},
	}}}

	res, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("completing follow-up: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.coll.CountDocuments(ctx, byID(leadID), options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("counting leads: %w", err)
	}
	if n == 0 {
		return minicrm.ErrLeadNotFound
	}
	return minicrm.ErrFollowUpNotFound
}

func (s *LeadStore) StatusCheck(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *LeadStore) findOneAndUpdate(ctx context.Context, id string, update bson.D) (minicrm.Lead, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var lead minicrm.Lead
	if err := s.coll.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&lead); err != nil {
		return minicrm.Lead{}, translate(err, "updating lead")
	}
	normalize(&lead)
	return lead, nil
}

func (s *LeadStore) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("db.collection", s.coll.Name()))
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil && !errors.Is(err, minicrm.ErrLeadNotFound) && !errors.Is(err, minicrm.ErrFollowUpNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func translate(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return minicrm.ErrLeadNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func normalize(l *minicrm.Lead) {
	if l.FollowUps == nil {
		l.FollowUps = []minicrm.FollowUp{}
	}
}
