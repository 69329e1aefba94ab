package engine

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"
)

const (
	tokenCELO = Token("CELO")
	tokenCUSD = Token("cUSD")

	poolAccount  = Account("0xPOOL")
	feeSink      = Account("0xFEE")
	platformRoot = Account("0xROOT")
)

// mockLedger 内存代币账本
type mockLedger struct {
	mu       sync.Mutex
	balances map[Token]map[Account]*big.Int
	// failTo 向该账户转账时失败，用于模拟转账中途失败
	failTo Account
	// transfers 记录所有成功转账
	transfers int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[Token]map[Account]*big.Int)}
}

func (l *mockLedger) setBalance(token Token, account Account, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[token] == nil {
		l.balances[token] = make(map[Account]*big.Int)
	}
	l.balances[token][account] = big.NewInt(amount)
}

func (l *mockLedger) balance(token Token, account Account) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[token][account]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *mockLedger) Transfer(ctx context.Context, token Token, from, to Account, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if to == l.failTo {
		return errors.New("transfer rejected")
	}
	if l.balances[token] == nil {
		l.balances[token] = make(map[Account]*big.Int)
	}
	fromBal := l.balances[token][from]
	if fromBal == nil || fromBal.Cmp(amount) < 0 {
		return errors.New("insufficient balance")
	}
	fromBal.Sub(fromBal, amount)
	if l.balances[token][to] == nil {
		l.balances[token][to] = new(big.Int)
	}
	l.balances[token][to].Add(l.balances[token][to], amount)
	l.transfers++
	return nil
}

func (l *mockLedger) BalanceOf(ctx context.Context, token Token, account Account) (*big.Int, error) {
	return l.balance(token, account), nil
}

// mockOracle 固定倍率汇率
type mockOracle struct {
	rate int64
	fail bool
}

func (o *mockOracle) Convert(ctx context.Context, token Token, amount *big.Int) (*big.Int, error) {
	if o.fail {
		return nil, errors.New("rate feed down")
	}
	rate := o.rate
	if rate == 0 {
		rate = 1
	}
	return new(big.Int).Mul(amount, big.NewInt(rate)), nil
}

// mockIdentity 配置式平台角色
type mockIdentity struct {
	superAdmins map[Account]bool
}

func (i *mockIdentity) ResolveRoles(account Account) []Role {
	if i.superAdmins[account] {
		return []Role{RoleSuperAdmin}
	}
	return nil
}

// mockSink 收集事件
type mockSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *mockSink) Emit(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *mockSink) byKind(kind EventKind) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, ev := range s.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// fixture 测试用引擎和可控时钟
type fixture struct {
	eng    *Engine
	ledger *mockLedger
	oracle *mockOracle
	sink   *mockSink
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ledger: newMockLedger(),
		oracle: &mockOracle{rate: 1},
		sink:   &mockSink{},
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.eng = New(
		Config{
			SupportedTokens: []Token{tokenCELO, tokenCUSD},
			PoolAccount:     poolAccount,
			FeeSink:         feeSink,
		},
		Deps{
			Ledger:   f.ledger,
			Oracle:   f.oracle,
			Identity: &mockIdentity{superAdmins: map[Account]bool{platformRoot: true}},
			Sink:     f.sink,
			Clock:    func() time.Time { return f.now },
		},
	)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// newCampaign 以默认窗口（当前时刻起一小时）创建活动
func (f *fixture) newCampaign(t *testing.T, admin Account, feeBps int64, maxWinners int, policy DistributionPolicy) *Campaign {
	t.Helper()
	c, err := f.eng.CreateCampaign(CampaignParams{
		Admin:       admin,
		StartTime:   f.now,
		EndTime:     f.now.Add(time.Hour),
		AdminFeeBps: feeBps,
		MaxWinners:  maxWinners,
		Policy:      policy,
		PayoutToken: tokenCELO,
	})
	if err != nil {
		t.Fatalf("CreateCampaign: %v", err)
	}
	return c
}

// newApprovedProject 创建项目、报名并审批
func (f *fixture) newApprovedProject(t *testing.T, owner, admin Account, campaignID int64) *Project {
	t.Helper()
	p, err := f.eng.CreateProject(owner, true)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := f.eng.JoinCampaign(owner, campaignID, p.ID); err != nil {
		t.Fatalf("JoinCampaign: %v", err)
	}
	if err := f.eng.ApproveParticipation(admin, campaignID, p.ID); err != nil {
		t.Fatalf("ApproveParticipation: %v", err)
	}
	return p
}

// vote 投票便捷方法
func (f *fixture) vote(t *testing.T, campaignID, projectID int64, voter Account, amount int64) {
	t.Helper()
	if _, err := f.eng.RecordVote(context.Background(), campaignID, projectID, voter, tokenCELO, big.NewInt(amount)); err != nil {
		t.Fatalf("RecordVote: %v", err)
	}
}
