package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/catapult/internal/adapters/abi"
	"github.com/trebuchet-org/catapult/internal/adapters/blockchain"
	internalconfig "github.com/trebuchet-org/catapult/internal/adapters/config"
	"github.com/trebuchet-org/catapult/internal/adapters/fs"
	"github.com/trebuchet-org/catapult/internal/adapters/interactive"
	"github.com/trebuchet-org/catapult/internal/adapters/repository/contracts"
	"github.com/trebuchet-org/catapult/internal/adapters/repository/plans"
	"github.com/trebuchet-org/catapult/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewArtifactStoreAdapter,
	wire.Bind(new(usecase.ArtifactStore), new(*fs.ArtifactStoreAdapter)),

	fs.NewMigrationLedgerAdapter,
	wire.Bind(new(usecase.MigrationLedger), new(*fs.MigrationLedgerAdapter)),
)

// RepositorySet provides plan and contract repositories
var RepositorySet = wire.NewSet(
	plans.NewRepository,
	wire.Bind(new(usecase.PlanRepository), new(*plans.Repository)),

	contracts.NewRepository,
	wire.Bind(new(usecase.ContractRepository), new(*contracts.Repository)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.PlanSelector), new(*interactive.SelectorAdapter)),

	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	internalconfig.NewNetworkResolverAdapter,
	wire.Bind(new(usecase.NetworkResolver), new(*internalconfig.NetworkResolverAdapter)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	abi.NewMethodCodec,
	blockchain.NewConnector,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Connector)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	RepositorySet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
)
