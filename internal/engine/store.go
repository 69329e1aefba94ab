package engine

import (
	"sync"
)

// campaignState 单个活动的全部状态，由自己的锁串行化
type campaignState struct {
	mu       sync.Mutex
	campaign *Campaign
	// participations 按项目ID索引
	participations map[int64]*Participation
	// votes 按 (项目, 投票人, 代币) 索引，同键追加投票时累加
	votes map[VoteKey]*VoteRecord
}

// milestoneState 单个里程碑的状态，由自己的锁串行化
type milestoneState struct {
	mu        sync.Mutex
	milestone *Milestone
}

// Store 引擎内存状态。外层锁只保护映射和项目表；
// 活动和里程碑各自持锁，互不相关的实体不会相互阻塞。
type Store struct {
	mu         sync.RWMutex
	campaigns  map[int64]*campaignState
	projects   map[int64]*Project
	milestones map[int64]*milestoneState

	nextCampaignID  int64
	nextProjectID   int64
	nextMilestoneID int64
}

// NewStore 创建空状态
func NewStore() *Store {
	return &Store{
		campaigns:  make(map[int64]*campaignState),
		projects:   make(map[int64]*Project),
		milestones: make(map[int64]*milestoneState),
	}
}

// addCampaign 分配ID并登记活动
func (s *Store) addCampaign(c *Campaign) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCampaignID++
	c.ID = s.nextCampaignID
	s.campaigns[c.ID] = &campaignState{
		campaign:       c,
		participations: make(map[int64]*Participation),
		votes:          make(map[VoteKey]*VoteRecord),
	}
	return c.ID
}

// addProject 分配ID并登记项目
func (s *Store) addProject(p *Project) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProjectID++
	p.ID = s.nextProjectID
	s.projects[p.ID] = p
	return p.ID
}

// addMilestone 分配ID并登记里程碑
func (s *Store) addMilestone(m *Milestone) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextMilestoneID++
	m.ID = s.nextMilestoneID
	s.milestones[m.ID] = &milestoneState{milestone: m}
	return m.ID
}

// campaignEntry 取活动状态
func (s *Store) campaignEntry(id int64) (*campaignState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.campaigns[id]
	return cs, ok
}

// milestoneEntry 取里程碑状态
func (s *Store) milestoneEntry(id int64) (*milestoneState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.milestones[id]
	return ms, ok
}

// project 取项目快照。项目字段在外层写锁内修改，
// 读取方拿副本，不会观察到修改中的状态。
func (s *Store) project(id int64) (*Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, false
	}
	snapshot := *p
	snapshot.CampaignIDs = make(map[int64]bool, len(p.CampaignIDs))
	for cid := range p.CampaignIDs {
		snapshot.CampaignIDs[cid] = true
	}
	return &snapshot, true
}

// linkProject 登记项目参加的活动
func (s *Store) linkProject(projectID, campaignID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[projectID]; ok {
		p.CampaignIDs[campaignID] = true
	}
}
