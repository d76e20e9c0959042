package catalog

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/leapxmla/internal/notifier"
	"github.com/leapstack-labs/leapxmla/pkg/core"
)

// FactoryConfig configures a Factory.
type FactoryConfig struct {
	DataSource core.DataSource
	Logger     *slog.Logger
}

// Factory hands out connections to the current repository. Reloads swap
// the repository atomically: a connection keeps the repository it was
// opened on.
type Factory struct {
	repo     atomic.Pointer[Repository]
	extra    *Extra
	notifier *notifier.Notifier[*Repository]
	logger   *slog.Logger
}

// NewFactory creates a Factory serving repo.
func NewFactory(repo *Repository, cfg FactoryConfig) *Factory {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	f := &Factory{
		extra:    &Extra{dataSource: withDataSourceDefaults(cfg.DataSource)},
		notifier: notifier.New[*Repository](),
		logger:   cfg.Logger,
	}
	f.repo.Store(repo)
	return f
}

// Connect opens a connection on the current repository.
func (f *Factory) Connect(_ context.Context, _ core.ConnectRequest) (core.Connection, error) {
	return &connection{repo: f.repo.Load()}, nil
}

// Extra returns the backend capabilities.
func (f *Factory) Extra() core.Extra {
	return f.extra
}

// Repository returns the repository new connections see.
func (f *Factory) Repository() *Repository {
	return f.repo.Load()
}

// Swap installs repo for new connections and notifies subscribers.
func (f *Factory) Swap(repo *Repository) {
	f.repo.Store(repo)
	reloadsTotal.Inc()
	f.logger.Info("catalog swapped", "cubes", repo.CubeCount(), "loaded_at", repo.LoadedAt())
	f.notifier.Broadcast(repo)
}

// Subscribe returns a channel receiving every swapped-in repository.
func (f *Factory) Subscribe() <-chan *Repository {
	return f.notifier.Subscribe()
}

// Unsubscribe releases a channel returned by Subscribe.
func (f *Factory) Unsubscribe(ch <-chan *Repository) {
	f.notifier.Unsubscribe(ch)
}

type connection struct {
	repo *Repository
}

func (c *connection) Catalogs(context.Context) ([]core.Catalog, error) {
	return convert(c.repo.catalogs, func(cat *Catalog) core.Catalog { return cat }), nil
}

func (c *connection) Close() error {
	return nil
}

func withDataSourceDefaults(ds core.DataSource) core.DataSource {
	if ds.Name == "" {
		ds.Name = "Provider=leapxmla;DataSource=leapxmla;"
	}
	if ds.Description == "" {
		ds.Description = "leapxmla XML for Analysis data source"
	}
	if ds.ProviderName == "" {
		ds.ProviderName = "leapxmla"
	}
	if len(ds.ProviderTypes) == 0 {
		ds.ProviderTypes = []string{"MDP"}
	}
	if ds.AuthMode == "" {
		ds.AuthMode = "Unauthenticated"
	}
	return ds
}

// Extra implements core.Extra for loaded catalogs.
type Extra struct {
	dataSource core.DataSource
}

// Keywords returns the MDX reserved words.
func (e *Extra) Keywords() []string {
	return keywords
}

func (e *Extra) DataSources() []core.DataSource {
	return []core.DataSource{e.dataSource}
}

func (e *Extra) CubeType(c core.Cube) string {
	if cube, ok := c.(*Cube); ok {
		return cube.typ
	}
	return "CUBE"
}

func (e *Extra) SchemaLoadDate(s core.Schema) time.Time {
	if sch, ok := s.(*Schema); ok {
		return sch.loadedAt
	}
	return time.Time{}
}

func (e *Extra) SchemaRoleNames(s core.Schema) []string {
	if sch, ok := s.(*Schema); ok {
		return sch.catalog.roles
	}
	return nil
}

func (e *Extra) LevelCardinality(ctx context.Context, l core.Level) (int, error) {
	ms, err := l.Members(ctx)
	if err != nil {
		return 0, err
	}
	return len(ms), nil
}

func (e *Extra) HierarchyCardinality(ctx context.Context, h core.Hierarchy) (int, error) {
	if hier, ok := h.(*Hierarchy); ok {
		if err := hier.load(ctx); err != nil {
			return 0, err
		}
		return hier.count, nil
	}
	n := 0
	for _, l := range h.Levels() {
		c, err := e.LevelCardinality(ctx, l)
		if err != nil {
			return 0, err
		}
		n += c
	}
	return n, nil
}

func (e *Extra) HierarchyStructure(h core.Hierarchy) core.HierarchyStructure {
	if hier, ok := h.(*Hierarchy); ok {
		return hier.structure
	}
	return core.StructureFullyBalanced
}

func (e *Extra) IsHierarchyParentChild(h core.Hierarchy) bool {
	hier, ok := h.(*Hierarchy)
	return ok && hier.parentChild
}

func (e *Extra) IsLevelUnique(l core.Level) bool {
	level, ok := l.(*Level)
	return ok && level.unique
}

var keywords = []string{
	"$AdjustedProbability", "$Distance", "$Probability", "$ProbabilityStDev", "$ProbabilityStdDeV",
	"$ProbabilityVariance", "$StDev", "$StdDeV", "$Support", "$Variance",
	"AddCalculatedMembers", "Action", "After", "Aggregate", "All", "Alter", "Ancestor", "And",
	"Append", "As", "ASC", "Axis", "Automatic", "Back_Color", "BASC", "BDESC", "Before",
	"Before_And_After", "Before_And_Self", "Before_Self_After", "BottomCount", "BottomPercent",
	"BottomSum", "Break", "Boolean", "Cache", "Calculated", "Call", "Case", "Catalog_Name",
	"Cell", "Cell_Ordinal", "Cells", "Chapters", "Children", "Children_Cardinality", "ClosingPeriod",
	"Cluster", "ClusterDistance", "ClusterProbability", "Clusters", "CoalesceEmpty", "Column_Values",
	"Columns", "Content", "Contingent", "Continuous", "Correlation", "Cousin", "Covariance",
	"CovarianceN", "Create", "CreatePropertySet", "CrossJoin", "Cube", "Cube_Name", "CurrentMember",
	"CurrentCube", "Custom", "Cyclical", "DefaultMember", "Default_Member", "DESC", "Descendents",
	"Description", "Dimension", "Dimension_Unique_Name", "Dimensions", "Discrete", "Discretized",
	"DrillDownLevel", "DrillDownLevelBottom", "DrillDownLevelTop", "DrillDownMember",
	"DrillDownMemberBottom", "DrillDownMemberTop", "DrillTrough", "DrillUpLevel", "DrillUpMember",
	"Drop", "Else", "Empty", "End", "Equal_Areas", "Exclude_Null", "ExcludeEmpty", "Exclusive",
	"Expression", "Filter", "FirstChild", "FirstRowset", "FirstSibling", "Flattened", "Font_Flags",
	"Font_Name", "Font_size", "Fore_Color", "Format_String", "Formatted_Value", "Formula", "From",
	"Generate", "Global", "Head", "Hierarchize", "Hierarchy", "Hierary_Unique_name", "IIF", "IsEmpty",
	"Include_Null", "Include_Statistics", "Inclusive", "Input_Only", "IsDescendant", "Item", "Lag",
	"LastChild", "LastPeriods", "LastSibling", "Lead", "Level", "Level_Unique_Name", "Levels",
	"LinRegIntercept", "LinRegR2", "LinRegPoint", "LinRegSlope", "LinRegVariance", "Long", "MaxRows",
	"Median", "Member", "Member_Caption", "Member_Guid", "Member_Name", "Member_Ordinal",
	"Member_Type", "Member_Unique_Name", "Members", "Microsoft_Clustering", "Microsoft_Decision_Trees",
	"Mining", "Model", "Model_Existence_Only", "Models", "Move", "MTD", "Name", "Nest", "NextMember",
	"Non", "NonEmpty", "Normal", "Not", "Ntext", "Nvarchar", "OLAP", "On", "OpeningPeriod",
	"OpenQuery", "Or", "Ordered", "Ordinal", "Pages", "ParallelPeriod", "Parent", "Parent_Level",
	"Parent_Unique_Name", "PeriodsToDate", "PMML", "Predict", "Predict_Only", "PredictAdjustedProbability",
	"PredictHistogram", "Prediction", "PredictionScore", "PredictProbability", "PredictProbabilityStDev",
	"PredictProbabilityVariance", "PredictStDev", "PredictSupport", "PredictVariance", "PrevMember",
	"Probability", "Probability_StDev", "Probability_StdDev", "Probability_Variance", "Properties",
	"Property", "QTD", "RangeMax", "RangeMid", "RangeMin", "Rank", "Recursive", "Refresh", "Related",
	"Rename", "Rollup", "Rows", "Schema_Name", "Sections", "Select", "Self", "Self_And_After",
	"Sequence_Time", "Server", "Session", "Set", "SetToArray", "SetToStr", "Shape", "Skip", "Solve_Order",
	"Sort", "StdDev", "Stdev", "StripCalculatedMembers", "StrToSet", "StrToTuple", "SubSet", "Support",
	"Tail", "Text", "Thresholds", "ToggleDrillState", "TopCount", "TopPercent", "TopSum", "TupleToStr",
	"Under", "Uniform", "UniqueName", "Use", "Value", "Var", "Variance", "VarP", "VarianceP", "VisualTotals",
	"When", "Where", "With", "WTD", "Xor",
}
