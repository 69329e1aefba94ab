package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"github.com/sovseas/sse/internal/chain"
	"github.com/sovseas/sse/internal/config"
	"github.com/sovseas/sse/internal/engine"
	"github.com/sovseas/sse/internal/logger"
	"github.com/sovseas/sse/internal/logic"
	"github.com/sovseas/sse/internal/model"
	"gorm.io/gorm"
)

// EventMonitor 链上投票监控器。
// 周期拉取投票合约日志，把 VoteCast 事件喂给引擎并落库。
// tx_hash + log_index 唯一索引保证重放不会重复计票。
type EventMonitor struct {
	client    *chain.Client
	eng       *engine.Engine
	voteLogic *logic.VoteRecordLogic
	evtLogic  *logic.EventLogic

	tokenByAddr map[string]engine.Token // 合约地址(小写) -> 代币符号
	interval    time.Duration

	startBlockNum   int64
	retryCount      int
	backoffDuration time.Duration
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
}

// NewEventMonitor 创建投票监控器
func NewEventMonitor(client *chain.Client, eng *engine.Engine, db *gorm.DB, tokens []config.TokenConfig, interval time.Duration) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	byAddr := make(map[string]engine.Token, len(tokens))
	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		byAddr[strings.ToLower(t.Address)] = engine.Token(t.Symbol)
	}

	if interval <= 0 {
		interval = time.Minute
	}

	return &EventMonitor{
		client:          client,
		eng:             eng,
		voteLogic:       logic.NewVoteRecordLogic(db),
		evtLogic:        logic.NewEventLogic(db),
		tokenByAddr:     byAddr,
		interval:        interval,
		backoffDuration: time.Second * 5,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start 启动监控
func (m *EventMonitor) Start() error {
	logger.Info("Starting vote event monitor")

	currentBlock, err := m.client.LatestConfirmedBlock(m.ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to blockchain: %w", err)
	}
	logger.Info("Connected to blockchain, confirmed block: %d", currentBlock)

	startBlock := m.resolveStartBlock()
	m.mu.Lock()
	m.startBlockNum = startBlock
	m.mu.Unlock()
	logger.Info("Starting monitor from block %d", startBlock)

	go m.loop()
	return nil
}

// Stop 停止监控
func (m *EventMonitor) Stop() {
	logger.Info("Stopping vote event monitor")
	m.cancel()
}

// loop 监控循环
func (m *EventMonitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.client.LatestConfirmedBlock(m.ctx)
			if err != nil {
				logger.Error("Failed to get confirmed block number: %v", err)
				m.handleError(err)
				continue
			}

			from := m.getStartBlockNum()
			if from > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(from, currentBlock); err != nil {
				logger.Error("Error processing blocks: %v", err)
				m.handleError(err)
			}
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *EventMonitor) processBlocksInBatches(fromBlock, toBlock int64) error {
	batchSize := int64(500)

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		logger.Debug("Processing batch blocks %d to %d", currentFrom, currentTo)
		if err := m.processBatch(currentFrom, currentTo); err != nil {
			if isRateLimitError(err) {
				logger.Error("API rate limit hit while processing blocks %d-%d: %v", currentFrom, currentTo, err)
				return err
			}
			logger.Error("Error processing blocks %d-%d: %v", currentFrom, currentTo, err)
			continue
		}

		m.updateStartBlockNum(currentTo + 1)
		time.Sleep(time.Millisecond * 500)
	}

	return nil
}

// processBatch 处理一批区块的日志
func (m *EventMonitor) processBatch(fromBlock, toBlock int64) error {
	logs, err := m.client.VotingLogs(m.ctx, fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}
	if len(logs) == 0 {
		return nil
	}
	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	// 按活动分组，同一活动内保持日志顺序
	logsByCampaign := m.groupLogsByCampaign(logs)
	groupCount := len(logsByCampaign)
	if groupCount == 0 {
		return nil
	}

	// 临时协程池，大小等于分组数量
	tempPool, err := ants.NewPool(groupCount)
	if err != nil {
		return fmt.Errorf("failed to create temporary pool for %d groups: %w", groupCount, err)
	}
	defer tempPool.Release()

	var wg sync.WaitGroup
	for campaignId, events := range logsByCampaign {
		wg.Add(1)
		campaignId, events := campaignId, events
		err := tempPool.Submit(func() {
			defer wg.Done()
			m.processCampaignEvents(campaignId, events)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// groupLogsByCampaign 解析日志并按活动分组
func (m *EventMonitor) groupLogsByCampaign(logs []types.Log) map[int64][]*chain.VoteCastEvent {
	groups := make(map[int64][]*chain.VoteCastEvent)
	for _, log := range logs {
		ev, err := m.client.ParseVoteCast(log)
		if err != nil {
			logger.Error("Error parsing vote event: %v", err)
			continue
		}
		if ev == nil {
			continue
		}
		groups[ev.CampaignId] = append(groups[ev.CampaignId], ev)
	}
	return groups
}

// processCampaignEvents 按顺序处理一个活动的投票事件
func (m *EventMonitor) processCampaignEvents(campaignId int64, events []*chain.VoteCastEvent) {
	for _, ev := range events {
		if err := m.processVote(ev); err != nil {
			logger.Error("Error processing vote for campaign %d: %v", campaignId, err)
		}
	}
}

// processVote 处理单个投票事件
func (m *EventMonitor) processVote(ev *chain.VoteCastEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal vote event: %w", err)
	}

	// 幂等：重复事件直接跳过
	record := &model.ChainEventModel{
		ContractAddress: m.client.VotingContract().Hex(),
		EventName:       "VoteCast",
		TxHash:          ev.TxHash,
		LogIndex:        ev.LogIndex,
		BlockNum:        ev.BlockNum,
		Data:            string(data),
	}
	created, err := m.evtLogic.CreateChainEvent(record)
	if err != nil {
		return err
	}
	if !created {
		logger.Debug("Skipping already processed vote event %s/%d", ev.TxHash, ev.LogIndex)
		return nil
	}

	token, ok := m.tokenByAddr[strings.ToLower(ev.Token)]
	if !ok {
		return fmt.Errorf("未知的投票代币地址: %s", ev.Token)
	}

	canonical, err := m.eng.RecordVote(m.ctx, ev.CampaignId, ev.ProjectId, engine.Account(ev.Voter), token, ev.Amount)
	if err != nil {
		return fmt.Errorf("引擎记票失败: %w", err)
	}

	if err := m.voteLogic.CreateVoteRecord(&model.VoteRecordModel{
		CampaignId:      ev.CampaignId,
		ProjectId:       ev.ProjectId,
		Voter:           ev.Voter,
		Token:           string(token),
		RawAmount:       ev.Amount.String(),
		CanonicalAmount: canonical.String(),
		TxHash:          ev.TxHash,
		BlockNum:        ev.BlockNum,
	}); err != nil {
		logger.Error("Failed to persist chain vote record: %v", err)
	}

	if err := m.evtLogic.MarkChainEventProcessed(record.Id); err != nil {
		logger.Error("Failed to mark chain event processed: %v", err)
	}

	logger.Info("Processed chain vote: campaign %d project %d voter %s amount %s",
		ev.CampaignId, ev.ProjectId, ev.Voter, ev.Amount.String())
	return nil
}

// resolveStartBlock 确定起始区块：取配置起始块和数据库已处理最大块的较大者
func (m *EventMonitor) resolveStartBlock() int64 {
	configStart := m.client.StartBlock()

	maxProcessed, err := m.evtLogic.GetLastProcessedBlock(m.client.VotingContract().Hex())
	if err != nil {
		logger.Error("Failed to get max processed block from database: %v", err)
		return configStart
	}

	if maxProcessed >= configStart {
		return maxProcessed + 1
	}
	return configStart
}

func (m *EventMonitor) getStartBlockNum() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startBlockNum
}

func (m *EventMonitor) updateStartBlockNum(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
}

// handleError 错误计数与退避
func (m *EventMonitor) handleError(err error) {
	m.retryCount++
	if m.retryCount > 5 {
		m.backoffDuration = time.Minute * 5
	} else {
		m.backoffDuration = time.Duration(m.retryCount) * time.Second * 10
	}
	logger.Error("Monitor encountered error (retry %d): %v", m.retryCount, err)
}

// GetStatus 获取监控状态
func (m *EventMonitor) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"start_block": m.getStartBlockNum(),
		"contract":    m.client.VotingContract().Hex(),
		"retry_count": m.retryCount,
	}
}

func isRateLimitError(err error) bool {
	return strings.Contains(err.Error(), "Too Many Requests")
}
